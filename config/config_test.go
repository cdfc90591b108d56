package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/config"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
		os.Unsetenv(config.EncryptionKeyEnvVar)
	})

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				configContent := `
server:
  address: ":8080"
  environment: "dev"

logging:
  level: "info"

partner_cache:
  capacity: 200
  ttl: "15m"

breaker:
  window_size: 20
  minimum_calls: 10
  failure_rate_threshold: 0.6
  slow_call_rate_threshold: 0.6
  slow_call_duration_threshold: "3s"
  open_state_duration: "20s"
  permitted_half_open_calls: 5
  eviction_quiet_period: "12h"
  sweep_interval: "30m"

broadcast:
  deadline: "7s"

worker_pool:
  core_size: 20
  max_size: 100
  queue_size: 200
  keep_alive: "90s"

database:
  enabled: false
`
				configPath := filepath.Join(tempDir, "config.yaml")
				err := os.WriteFile(configPath, []byte(configContent), 0644)
				Expect(err).NotTo(HaveOccurred())

				err = os.Chdir(tempDir)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse partner cache settings", func() {
				cfg, _ := config.Load()
				Expect(cfg.PartnerCache.Capacity).To(Equal(200))
				Expect(cfg.CacheTTL()).To(Equal(15 * time.Minute))
			})

			It("should parse the broadcast deadline", func() {
				cfg, _ := config.Load()
				Expect(cfg.BroadcastDeadline()).To(Equal(7 * time.Second))
			})

			It("should parse worker pool bounds", func() {
				cfg, _ := config.Load()
				Expect(cfg.WorkerPool.CoreSize).To(Equal(20))
				Expect(cfg.WorkerPool.MaxSize).To(Equal(100))
				Expect(cfg.WorkerPoolKeepAlive()).To(Equal(90 * time.Second))
			})
		})

		Context("with no config file present", func() {
			BeforeEach(func() {
				err := os.Chdir(tempDir)
				Expect(err).NotTo(HaveOccurred())
			})

			It("falls back to spec-literal defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.PartnerCache.Capacity).To(Equal(100))
				Expect(cfg.CacheTTL()).To(Equal(30 * time.Minute))
				Expect(cfg.BroadcastDeadline()).To(Equal(5 * time.Second))
				Expect(cfg.WorkerPool.CoreSize).To(Equal(10))
				Expect(cfg.WorkerPool.MaxSize).To(Equal(50))
				Expect(cfg.WorkerPool.QueueSize).To(Equal(100))
			})
		})

		Context("with an invalid worker pool configuration", func() {
			BeforeEach(func() {
				configContent := `
server:
  address: ":8080"
  environment: "dev"
logging:
  level: "info"
worker_pool:
  core_size: 50
  max_size: 10
  queue_size: 100
  keep_alive: "60s"
`
				configPath := filepath.Join(tempDir, "config.yaml")
				Expect(os.WriteFile(configPath, []byte(configContent), 0644)).To(Succeed())
				Expect(os.Chdir(tempDir)).To(Succeed())
			})

			It("rejects max_size smaller than core_size", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("EncryptionKey", func() {
		It("reads the key straight from the environment", func() {
			os.Setenv(config.EncryptionKeyEnvVar, "test-key-value")
			Expect(config.EncryptionKey()).To(Equal("test-key-value"))
		})

		It("is empty when unset", func() {
			os.Unsetenv(config.EncryptionKeyEnvVar)
			Expect(config.EncryptionKey()).To(Equal(""))
		})
	})
})
