// Package twiml renders minimal TwiML messaging responses.
package twiml

import (
	"encoding/xml"
	"fmt"
)

type response struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// Reply renders a single-message TwiML document.
func Reply(msg string) ([]byte, error) {
	body, err := xml.Marshal(response{Message: msg})
	if err != nil {
		return nil, fmt.Errorf("marshal twiml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
