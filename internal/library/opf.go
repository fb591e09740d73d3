// file: internal/library/opf.go
// version: 1.0.0
// guid: 1d2e3f4a-5b6c-7d8e-9f0a-1b2c3d4e5f61

package library

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/jdfalk/audibleshelf/internal/models"
)

// OPF (EPUB package document) types. Only the metadata/manifest subset that
// Audiobookshelf reads is emitted.
type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	Xmlns            string      `xml:"xmlns,attr"`
	XmlnsDC          string      `xml:"xmlns:dc,attr"`
	XmlnsOPF         string      `xml:"xmlns:opf,attr"`
	XmlnsSchema      string      `xml:"xmlns:schema,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Version          string      `xml:"version,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         opfManifest `xml:"manifest"`
}

type opfMetadata struct {
	Identifiers  []opfIdentifier `xml:"dc:identifier"`
	Title        string          `xml:"dc:title"`
	Language     string          `xml:"dc:language"`
	Creators     []opfRole       `xml:"dc:creator"`
	Contributors []opfRole       `xml:"dc:contributor"`
	Date         string          `xml:"dc:date,omitempty"`
	Description  string          `xml:"dc:description,omitempty"`
	Meta         []opfMeta       `xml:"meta"`
}

type opfIdentifier struct {
	ID     string `xml:"id,attr,omitempty"`
	Scheme string `xml:"opf:scheme,attr,omitempty"`
	Value  string `xml:",chardata"`
}

type opfRole struct {
	Role  string `xml:"opf:role,attr"`
	Value string `xml:",chardata"`
}

type opfMeta struct {
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Property string `xml:"property,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type opfManifest struct {
	Items []opfItem `xml:"item"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

// writeOPF writes an EPUB 3 style package document for the record.
func writeOPF(record *models.MetadataRecord, path string) error {
	bookID := "urn:uuid:PLACEHOLDER-UUID"
	identifiers := []opfIdentifier{}
	if record.ASIN != "" {
		bookID = "urn:asin:" + record.ASIN
	}
	identifiers = append(identifiers, opfIdentifier{ID: "BookId", Value: bookID})
	if record.ASIN != "" {
		identifiers = append(identifiers, opfIdentifier{Scheme: "ASIN", Value: record.ASIN})
	}

	creators := make([]opfRole, 0, len(record.Authors))
	for _, name := range record.Authors {
		creators = append(creators, opfRole{Role: "aut", Value: name})
	}
	if len(creators) == 0 {
		creators = append(creators, opfRole{Role: "aut", Value: "Unknown Author"})
	}

	contributors := make([]opfRole, 0, len(record.Narrators))
	for _, name := range record.Narrators {
		contributors = append(contributors, opfRole{Role: "nrt", Value: name})
	}

	date := record.ReleaseDate
	if date == "" {
		date = record.Year
	}

	meta := []opfMeta{{Name: "cover", Content: "cover-image"}}
	if record.Series != "" {
		meta = append(meta, opfMeta{Property: "schema:series", Value: record.Series})
		if record.SeriesSequence != "" {
			meta = append(meta, opfMeta{Property: "schema:seriesPosition", Value: record.SeriesSequence})
		}
	}

	doc := opfPackage{
		Xmlns:            "http://www.idpf.org/2007/opf",
		XmlnsDC:          "http://purl.org/dc/elements/1.1/",
		XmlnsOPF:         "http://www.idpf.org/2007/opf",
		XmlnsSchema:      "http://schema.org/",
		UniqueIdentifier: "BookId",
		Version:          "3.0",
		Metadata: opfMetadata{
			Identifiers:  identifiers,
			Title:        record.Title,
			Language:     "en",
			Creators:     creators,
			Contributors: contributors,
			Date:         date,
			Description:  record.Description,
			Meta:         meta,
		},
		Manifest: opfManifest{
			Items: []opfItem{{
				ID:         "cover-image",
				Href:       "cover.jpg",
				MediaType:  "image/jpeg",
				Properties: "cover-image",
			}},
		},
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode OPF: %w", err)
	}

	content := append([]byte(xml.Header), data...)
	content = append(content, '\n')
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write OPF: %w", err)
	}
	return nil
}
