package service

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.uber.org/zap"

	"gastoscan/internal/models"
)

type mockProvider struct {
	raw *models.RawExtraction
	err error
}

func (m *mockProvider) ExtractExpense(ctx context.Context, image []byte, mimeType string) (*models.RawExtraction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.raw, nil
}

func (m *mockProvider) Close() error { return nil }

var _ = Describe("LLMService", func() {
	var (
		provider *mockProvider
		svc      *LLMService
	)

	BeforeEach(func() {
		provider = &mockProvider{raw: completeExtraction()}
		svc = NewLLMService(provider, zap.NewNop())
	})

	Describe("Extract", func() {
		It("returns the provider's extraction", func() {
			raw := svc.Extract(context.Background(), []byte("image"), "image/jpeg")
			Expect(raw).To(Equal(provider.raw))
		})

		It("returns nil for empty input", func() {
			Expect(svc.Extract(context.Background(), nil, "image/jpeg")).To(BeNil())
		})

		It("normalizes provider failures to nil", func() {
			provider.err = errors.New("rate limited")
			Expect(svc.Extract(context.Background(), []byte("image"), "image/jpeg")).To(BeNil())
		})
	})
})

var _ = Describe("parseExtractionJSON", func() {
	const payload = `{"tipo_documento":"boleta","proveedor":"Metro","monto_total":45.9}`

	It("parses a bare JSON object", func() {
		raw, err := parseExtractionJSON(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.TipoDocumento).To(Equal("boleta"))
		Expect(raw.MontoTotal.String()).To(Equal("45.9"))
	})

	It("strips markdown fences", func() {
		raw, err := parseExtractionJSON("```json\n" + payload + "\n```")
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.Proveedor).To(Equal("Metro"))
	})

	It("ignores commentary around the object", func() {
		raw, err := parseExtractionJSON("Aquí está el resultado:\n" + payload + "\nEspero que ayude.")
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.Proveedor).To(Equal("Metro"))
	})

	It("fails when no object is present", func() {
		_, err := parseExtractionJSON("no puedo leer este documento")
		Expect(err).To(HaveOccurred())
	})

	It("fails on malformed JSON", func() {
		_, err := parseExtractionJSON(`{"tipo_documento": }`)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("sanitizeUTF8", func() {
	It("passes valid strings through unchanged", func() {
		Expect(sanitizeUTF8("Cafetería San Martín")).To(Equal("Cafetería San Martín"))
	})

	It("drops invalid bytes", func() {
		Expect(sanitizeUTF8("Caf\xffe")).To(Equal("Cafe"))
	})
})
