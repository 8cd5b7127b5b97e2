package servecmder

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/config"
	"github.com/papercomputeco/chatter/pkg/eventstream/kafka"
	"github.com/papercomputeco/chatter/pkg/eventstream/nop"
	"github.com/papercomputeco/chatter/pkg/logger"
	"github.com/papercomputeco/chatter/pkg/storage/inmemory"
	"github.com/papercomputeco/chatter/pkg/storage/sqlite"
)

var _ = Describe("newDriver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		GinkgoT().Setenv("CHATTER_SQLITE", "")
	})

	It("opens an in-memory driver", func() {
		driver, err := newDriver(ctx, config.StorageConfig{Driver: config.StorageMemory}, "", logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(driver).To(BeAssignableToTypeOf(&inmemory.Driver{}))
		Expect(driver.Close()).To(Succeed())
	})

	It("creates chatter.db in the config dir by default", func() {
		dir := GinkgoT().TempDir()

		driver, err := newDriver(ctx, config.StorageConfig{Driver: config.StorageSQLite}, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(driver.Close)

		Expect(driver).To(BeAssignableToTypeOf(&sqlite.Driver{}))
		_, err = os.Stat(filepath.Join(dir, "chatter.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires a dsn for postgres", func() {
		_, err := newDriver(ctx, config.StorageConfig{Driver: config.StoragePostgres}, "", logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("storage.postgres_dsn")))
	})

	It("rejects unknown drivers", func() {
		_, err := newDriver(ctx, config.StorageConfig{Driver: "mysql"}, "", logger.Nop())
		Expect(err).To(MatchError(ContainSubstring(`unknown storage driver: "mysql"`)))
	})
})

var _ = Describe("newPublisher", func() {
	It("defaults to the no-op publisher", func() {
		p, err := newPublisher(config.EventStreamConfig{Provider: config.EventStreamNone}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
	})

	It("builds a kafka publisher", func() {
		p, err := newPublisher(config.EventStreamConfig{
			Provider: config.EventStreamKafka,
			Brokers:  []string{"localhost:9092"},
			Topic:    "chatter.turns",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		Expect(p.Close()).To(Succeed())
	})

	It("requires kafka brokers", func() {
		_, err := newPublisher(config.EventStreamConfig{Provider: config.EventStreamKafka, Topic: "t"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("broker")))
	})

	It("rejects unknown providers", func() {
		_, err := newPublisher(config.EventStreamConfig{Provider: "nats"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})
