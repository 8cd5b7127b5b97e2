package sqlitepath

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	BeforeEach(func() {
		GinkgoT().Setenv(EnvVar, "")
	})

	It("prefers an explicit override", func() {
		GinkgoT().Setenv(EnvVar, "/tmp/env.db")

		path, err := ResolveSQLitePath("/tmp/flag.db", "/tmp/.chatter")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/flag.db"))
	})

	It("uses CHATTER_SQLITE when no override is given", func() {
		GinkgoT().Setenv(EnvVar, " /tmp/custom.db ")

		path, err := ResolveSQLitePath("", "/tmp/.chatter")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("falls back to chatter.db in the config dir", func() {
		dir := GinkgoT().TempDir()

		path, err := ResolveSQLitePath("  ", dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "chatter.db")))
	})

	It("fails without any source", func() {
		_, err := ResolveSQLitePath("", "")
		Expect(err).To(MatchError(ContainSubstring("pass --sqlite")))
	})
})
