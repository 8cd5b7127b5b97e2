package sse_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/sse"
)

var _ = Describe("LineFramer", func() {
	var f *sse.LineFramer

	BeforeEach(func() {
		f = sse.NewLineFramer()
	})

	It("yields complete lines and keeps the trailing fragment", func() {
		Expect(f.Feed("one\ntwo\nthr")).To(Equal([]string{"one", "two"}))
		Expect(f.Pending()).To(Equal("thr"))
	})

	It("prefixes the pending fragment onto the next line", func() {
		Expect(f.Feed("data: {\"a\"")).To(BeEmpty())
		Expect(f.Feed(":1}\nnext")).To(Equal([]string{"data: {\"a\":1}"}))
		Expect(f.Pending()).To(Equal("next"))
	})

	It("emits empty lines for consecutive separators", func() {
		Expect(f.Feed("a\n\nb\n")).To(Equal([]string{"a", "", "b"}))
	})

	It("leaves carriage returns in place", func() {
		Expect(f.Feed("a\r\n")).To(Equal([]string{"a\r"}))
	})

	It("emits the unterminated fragment on Flush", func() {
		f.Feed("tail")
		line, ok := f.Flush()
		Expect(ok).To(BeTrue())
		Expect(line).To(Equal("tail"))

		_, ok = f.Flush()
		Expect(ok).To(BeFalse())
	})

	It("is idempotent once flushed", func() {
		f.Feed("x\n")
		f.Flush()
		Expect(func() {
			Expect(f.Feed("")).To(BeEmpty())
		}).NotTo(Panic())
		_, ok := f.Flush()
		Expect(ok).To(BeFalse())
	})

	It("drops pending text on Reset", func() {
		f.Feed("partial")
		f.Reset()
		Expect(f.Pending()).To(BeEmpty())
		Expect(f.Feed("\n")).To(Equal([]string{""}))
	})

	It("frames identically regardless of how the text is split", func() {
		text := "data: a\n\ndata: b\nkeep\n:c\n"
		whole := sse.NewLineFramer().Feed(text)

		for i := 0; i <= len(text); i++ {
			split := sse.NewLineFramer()
			got := append(split.Feed(text[:i]), split.Feed(text[i:])...)
			Expect(got).To(Equal(whole), "split at %d", i)
		}
	})
})
