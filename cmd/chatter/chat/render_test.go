package chatcmder

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("streamedRows", func() {
	It("counts lines when the width is unknown", func() {
		Expect(streamedRows("hello", 0)).To(Equal(1))
		Expect(streamedRows("a\nb\nc", 0)).To(Equal(3))
	})

	It("counts wrapped rows", func() {
		Expect(streamedRows("0123456789", 4)).To(Equal(3))
		Expect(streamedRows("ab\n\ncd", 10)).To(Equal(3))
	})
})
