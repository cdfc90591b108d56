package partnerclient

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
)

// buildBody renders the outbound request body for format and returns it
// together with the content-type header it requires.
func buildBody(p partner.Record, uid string, now time.Time) (body []byte, contentType string) {
	requestID := uuid.NewString()
	timestamp := now.UTC().Format(time.RFC3339)

	switch p.RequestFormat {
	case partner.FormatXML:
		return buildXMLBody(p.UIDFieldName, uid, timestamp, requestID), "application/xml"
	case partner.FormatForm:
		return buildFormBody(p.UIDFieldName, uid, timestamp, requestID), "application/x-www-form-urlencoded"
	case partner.FormatJSON:
		fallthrough
	default:
		return buildJSONBody(p.UIDFieldName, uid, timestamp, requestID), "application/json"
	}
}

func buildJSONBody(uidField, uid, timestamp, requestID string) []byte {
	payload := map[string]string{
		uidField:    uid,
		"timestamp": timestamp,
		"requestId": requestID,
	}
	// json.Marshal on a map[string]string cannot fail.
	out, _ := json.Marshal(payload)
	return out
}

// buildXMLBody escapes uid as XML text content and sanitizes uidField for
// use as an element name (see xmlEscapeName) — the source
// system does not (spec §9 open question 1); this implementation closes
// that gap rather than reproducing the injection risk.
func buildXMLBody(uidField, uid, timestamp, requestID string) []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><StartChargingRequest>`)
	sb.WriteString(fmt.Sprintf("<%s>%s</%s>", xmlEscapeName(uidField), xmlEscapeText(uid), xmlEscapeName(uidField)))
	sb.WriteString(fmt.Sprintf("<timestamp>%s</timestamp>", timestamp))
	sb.WriteString(fmt.Sprintf("<requestId>%s</requestId>", requestID))
	sb.WriteString(`</StartChargingRequest>`)
	return []byte(sb.String())
}

func buildFormBody(uidField, uid, timestamp, requestID string) []byte {
	values := url.Values{}
	values.Set(uidField, uid)
	values.Set("timestamp", timestamp)
	values.Set("requestId", requestID)
	return []byte(values.Encode())
}

// xmlEscapeText escapes uid for use as XML text content via the standard
// library's own escaper, rather than a hand-rolled replacer, so the escaping
// rules for text nodes exactly match what encoding/xml's own encoder would
// produce.
func xmlEscapeText(s string) string {
	var buf bytes.Buffer
	// xml.EscapeText only returns an error if the underlying Writer does;
	// bytes.Buffer never errors on Write.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// xmlEscapeName sanitizes a value used as an XML element name.
// xml.EscapeText cannot be reused here: it escapes characters into entity
// references ("&lt;"), which are only legal inside text content — an entity
// reference inside an element name is itself malformed XML. uidFieldName is
// configuration, not user input, but it can still contain characters that
// would corrupt the document if left unescaped — so field values that could
// break out of the tag are dropped rather than escaped, since no escaped
// form of them is legal inside an element name.
func xmlEscapeName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '<' || r == '>' || r == '&' || r == '"' || r == '\'' || r == ' ':
			continue
		default:
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return partner.DefaultUIDFieldName
	}
	return sb.String()
}
