package export

import (
	"encoding/json"
	"encoding/xml"
	"io"

	"energydash/internal/core"
)

func encodeJSON(w io.Writer, records []core.Record) error {
	if records == nil {
		records = []core.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

type xmlDocument struct {
	XMLName xml.Name      `xml:"energyData"`
	Records []core.Record `xml:"record"`
}

func encodeXML(w io.Writer, records []core.Record) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(xmlDocument{Records: records}); err != nil {
		return err
	}
	return enc.Close()
}
