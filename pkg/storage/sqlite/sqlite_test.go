package sqlite_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/storage"
	"github.com/papercomputeco/chatter/pkg/storage/sqlite"
	testutils "github.com/papercomputeco/chatter/pkg/utils/test"
)

var _ = Describe("Driver", func() {
	Context("in memory", func() {
		testutils.DriverBehaviors(func() storage.Driver {
			d, err := sqlite.NewDriver(context.Background(), ":memory:")
			Expect(err).NotTo(HaveOccurred())
			return d
		})
	})

	Context("on disk", func() {
		It("persists across reopen", func() {
			ctx := context.Background()
			path := filepath.Join(GinkgoT().TempDir(), "chatter.db")

			d, err := sqlite.NewDriver(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			conv, err := d.CreateConversation(ctx, "kept")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.AddMessage(ctx, &storage.Message{ConversationID: conv.ID, Role: "user", Content: "hi"})).To(Succeed())
			Expect(d.Close()).To(Succeed())

			d, err = sqlite.NewDriver(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			msgs, err := d.Messages(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Content).To(Equal("hi"))
		})
	})
})
