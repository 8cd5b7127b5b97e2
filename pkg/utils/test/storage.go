package testutils

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/storage"
)

// DriverBehaviors declares the specs every storage.Driver must pass.
// newDriver is called before each spec; the returned driver is closed after.
func DriverBehaviors(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("CreateConversation", func() {
		It("assigns increasing positive ids", func() {
			first, err := driver.CreateConversation(ctx, "first")
			Expect(err).NotTo(HaveOccurred())
			second, err := driver.CreateConversation(ctx, "second")
			Expect(err).NotTo(HaveOccurred())

			Expect(first.ID).To(BeNumerically(">", 0))
			Expect(second.ID).To(BeNumerically(">", first.ID))
			Expect(first.Title).To(Equal("first"))
			Expect(first.CreatedAt).NotTo(BeZero())
			Expect(first.UpdatedAt).To(Equal(first.CreatedAt))
		})
	})

	Describe("GetConversation", func() {
		It("returns a stored conversation", func() {
			created, err := driver.CreateConversation(ctx, "hello")
			Expect(err).NotTo(HaveOccurred())

			got, err := driver.GetConversation(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(created.ID))
			Expect(got.Title).To(Equal("hello"))
		})

		It("returns NotFoundError for an unknown id", func() {
			_, err := driver.GetConversation(ctx, 424242)
			var nf storage.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(nf.ConversationID).To(BeEquivalentTo(424242))
		})
	})

	Describe("AddMessage and Messages", func() {
		It("stores messages in order", func() {
			conv, err := driver.CreateConversation(ctx, "chat")
			Expect(err).NotTo(HaveOccurred())

			for _, m := range []storage.Message{
				{ConversationID: conv.ID, Role: "user", Content: "hi"},
				{ConversationID: conv.ID, Role: "assistant", Content: "hello"},
			} {
				msg := m
				Expect(driver.AddMessage(ctx, &msg)).To(Succeed())
				Expect(msg.ID).To(BeNumerically(">", 0))
				Expect(msg.CreatedAt).NotTo(BeZero())
			}

			msgs, err := driver.Messages(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal("user"))
			Expect(msgs[0].Content).To(Equal("hi"))
			Expect(msgs[1].Role).To(Equal("assistant"))
			Expect(msgs[1].ConversationID).To(Equal(conv.ID))
		})

		It("keeps conversations separate", func() {
			a, _ := driver.CreateConversation(ctx, "a")
			b, _ := driver.CreateConversation(ctx, "b")
			Expect(driver.AddMessage(ctx, &storage.Message{ConversationID: a.ID, Role: "user", Content: "for a"})).To(Succeed())

			msgs, err := driver.Messages(ctx, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(BeEmpty())
		})

		It("rejects a message for an unknown conversation", func() {
			err := driver.AddMessage(ctx, &storage.Message{ConversationID: 999, Role: "user", Content: "x"})
			var nf storage.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
		})

		It("returns NotFoundError when listing an unknown conversation", func() {
			_, err := driver.Messages(ctx, 999)
			var nf storage.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
		})
	})

	Describe("ListConversations", func() {
		It("returns an empty list for an empty store", func() {
			convs, err := driver.ListConversations(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(convs).To(BeEmpty())
		})

		It("orders by most recent activity", func() {
			older, _ := driver.CreateConversation(ctx, "older")
			time.Sleep(5 * time.Millisecond)
			newer, _ := driver.CreateConversation(ctx, "newer")

			convs, err := driver.ListConversations(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(convs).To(HaveLen(2))
			Expect(convs[0].ID).To(Equal(newer.ID))

			time.Sleep(5 * time.Millisecond)
			Expect(driver.AddMessage(ctx, &storage.Message{ConversationID: older.ID, Role: "user", Content: "bump"})).To(Succeed())

			convs, err = driver.ListConversations(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(convs[0].ID).To(Equal(older.ID))
			Expect(convs[0].UpdatedAt.After(convs[0].CreatedAt)).To(BeTrue())
		})
	})
}
