package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"randomuser-page/internal/config"
)

var _ = Describe("Load", func() {
	var dir string

	setEnv := func(key, value string) {
		prev, had := os.LookupEnv(key)
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(func() {
			if had {
				os.Setenv(key, prev)
			} else {
				os.Unsetenv(key)
			}
		})
	}

	writeFile := func(name, contents string) {
		Expect(os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600)).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(dir) })
	})

	It("applies defaults", func() {
		cfg, err := config.LoadFrom(dir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Server.Addr).To(Equal("0.0.0.0:8080"))
		Expect(cfg.Upstream.BaseURL).To(Equal("https://randomuser.me"))
		Expect(cfg.Upstream.Timeout).To(Equal(15 * time.Second))
		Expect(cfg.Page.Limit).To(Equal(100))
		Expect(cfg.Database.Path).To(Equal("data/randomuser.db"))
		Expect(cfg.Storage.KeyPrefix).To(Equal("randomuser-exports"))
		Expect(cfg.Storage.URLTTL).To(Equal(15 * time.Minute))
		Expect(cfg.ExportsEnabled()).To(BeFalse())
	})

	It("reads prefixed environment variables", func() {
		setEnv("RANDOMUSER_PAGE_LIMIT", "12")
		setEnv("RANDOMUSER_UPSTREAM_TIMEOUT", "3s")
		setEnv("RANDOMUSER_STORAGE_BUCKET", "exports")

		cfg, err := config.LoadFrom(dir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Page.Limit).To(Equal(12))
		Expect(cfg.Upstream.Timeout).To(Equal(3 * time.Second))
		Expect(cfg.Storage.Bucket).To(Equal("exports"))
		Expect(cfg.ExportsEnabled()).To(BeTrue())
	})

	It("reads an optional config file", func() {
		writeFile("config.yaml", "server:\n  addr: 127.0.0.1:9000\nupstream:\n  baseurl: http://mirror.local\n")

		cfg, err := config.LoadFrom(dir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Server.Addr).To(Equal("127.0.0.1:9000"))
		Expect(cfg.Upstream.BaseURL).To(Equal("http://mirror.local"))
	})

	It("loads .env without overriding the real environment", func() {
		setEnv("RANDOMUSER_SERVER_ADDR", ":7000")
		DeferCleanup(func() { os.Unsetenv("RANDOMUSER_DATABASE_PATH") })
		writeFile(".env", "# local\nRANDOMUSER_SERVER_ADDR=:1111\nRANDOMUSER_DATABASE_PATH=\"/tmp/history.db\"\n")

		cfg, err := config.LoadFrom(dir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Server.Addr).To(Equal(":7000"))
		Expect(cfg.Database.Path).To(Equal("/tmp/history.db"))
	})

	It("rejects a non-positive page limit", func() {
		setEnv("RANDOMUSER_PAGE_LIMIT", "0")

		_, err := config.LoadFrom(dir)
		Expect(err).To(MatchError(ContainSubstring("page limit")))
	})

	It("fails on a malformed config file", func() {
		writeFile("config.yaml", "server: [unclosed\n")

		_, err := config.LoadFrom(dir)
		Expect(err).To(HaveOccurred())
	})
})
