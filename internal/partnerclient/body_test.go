package partnerclient

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
)

var _ = Describe("buildBody", func() {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	It("builds a JSON body with the uid field, timestamp and requestId", func() {
		p := partner.Record{RequestFormat: partner.FormatJSON, UIDFieldName: "uid"}
		body, contentType := buildBody(p, "uid-123", now)
		Expect(contentType).To(Equal("application/json"))

		var decoded map[string]string
		Expect(json.Unmarshal(body, &decoded)).To(Succeed())
		Expect(decoded["uid"]).To(Equal("uid-123"))
		Expect(decoded["requestId"]).NotTo(BeEmpty())
		Expect(decoded["timestamp"]).To(Equal("2026-01-02T03:04:05Z"))
	})

	It("defaults unknown formats to JSON", func() {
		p := partner.Record{RequestFormat: "SOMETHING_ELSE", UIDFieldName: "uid"}
		_, contentType := buildBody(p, "uid-123", now)
		Expect(contentType).To(Equal("application/json"))
	})

	It("builds a well-formed XML document", func() {
		p := partner.Record{RequestFormat: partner.FormatXML, UIDFieldName: "uid"}
		body, contentType := buildBody(p, "uid-123", now)
		Expect(contentType).To(Equal("application/xml"))
		Expect(string(body)).To(ContainSubstring("<uid>uid-123</uid>"))
		Expect(string(body)).To(ContainSubstring("<StartChargingRequest>"))
	})

	It("escapes XML special characters in the uid", func() {
		p := partner.Record{RequestFormat: partner.FormatXML, UIDFieldName: "uid"}
		body, _ := buildBody(p, `<script>&"'`, now)
		Expect(string(body)).To(ContainSubstring("&lt;script&gt;&amp;&#34;&#39;"))
		Expect(string(body)).NotTo(ContainSubstring("<script>"))
	})

	It("builds a form-urlencoded body", func() {
		p := partner.Record{RequestFormat: partner.FormatForm, UIDFieldName: "uid"}
		body, contentType := buildBody(p, "uid-123", now)
		Expect(contentType).To(Equal("application/x-www-form-urlencoded"))

		values, err := url.ParseQuery(string(body))
		Expect(err).NotTo(HaveOccurred())
		Expect(values.Get("uid")).To(Equal("uid-123"))
	})

	It("strips characters that are unsafe in an XML tag from uidFieldName", func() {
		p := partner.Record{RequestFormat: partner.FormatXML, UIDFieldName: "<bad>"}
		body, _ := buildBody(p, "uid-123", now)
		Expect(strings.Contains(string(body), "<bad>uid-123</bad>")).To(BeTrue())
	})
})
