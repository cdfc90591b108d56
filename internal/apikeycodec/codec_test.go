package apikeycodec_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/apikeycodec"
)

func TestAPIKeyCodec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "APIKeyCodec Suite")
}

var _ = Describe("Codec", func() {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	It("round-trips a plaintext api key", func() {
		codec, err := apikeycodec.New(key)
		Expect(err).NotTo(HaveOccurred())

		ciphertext, err := codec.Encrypt("sk-partner-secret")
		Expect(err).NotTo(HaveOccurred())
		Expect(ciphertext).NotTo(Equal("sk-partner-secret"))

		plaintext, err := codec.Decrypt(ciphertext)
		Expect(err).NotTo(HaveOccurred())
		Expect(plaintext).To(Equal("sk-partner-secret"))
	})

	It("produces different ciphertexts for the same plaintext (random nonce)", func() {
		codec, _ := apikeycodec.New(key)
		a, _ := codec.Encrypt("same-value")
		b, _ := codec.Encrypt("same-value")
		Expect(a).NotTo(Equal(b))
	})

	It("passes empty ciphertext through as empty plaintext", func() {
		codec, _ := apikeycodec.New(key)
		plaintext, err := codec.Decrypt("")
		Expect(err).NotTo(HaveOccurred())
		Expect(plaintext).To(Equal(""))
	})

	It("rejects a key of the wrong length", func() {
		_, err := apikeycodec.New([]byte("too-short"))
		Expect(err).To(HaveOccurred())
	})

	It("fails to decrypt a tampered ciphertext", func() {
		codec, _ := apikeycodec.New(key)
		ciphertext, _ := codec.Encrypt("sk-partner-secret")
		tampered := ciphertext[:len(ciphertext)-4] + "abcd"

		_, err := codec.Decrypt(tampered)
		Expect(err).To(HaveOccurred())
	})
})
