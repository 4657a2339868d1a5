package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"randomuser-page/internal/domain"
	"randomuser-page/internal/randomuser"
	"randomuser-page/internal/storage"
)

var _ = Describe("ExportService", func() {
	var (
		ctx     context.Context
		fetcher *fakeFetcher
		history *memoryFetchRepository
		store   *fakeStorage
		svc     *exportService
		now     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
		fetcher = &fakeFetcher{
			page: &randomuser.Page{
				Users: sampleUsers("Jennie", "Lukas"),
				Info:  randomuser.Info{Seed: "seed-1", Results: 2, Page: 1, Version: "1.4"},
			},
		}
		history = &memoryFetchRepository{}
		store = &fakeStorage{}
		svc = NewExportService(ExportConfig{
			Bucket:    "exports",
			KeyPrefix: "/randomuser-exports/",
			URLTTL:    10 * time.Minute,
		}, store, fetcher, history, testLogger()).(*exportService)
		svc.newID = func() string { return "0f6c1c0e-1111-2222-3333-444455556666" }
		svc.recorder.now = func() time.Time { return now }
	})

	Describe("Create", func() {
		It("uploads the batch under a dated key", func() {
			export, err := svc.Create(ctx, 2)
			Expect(err).NotTo(HaveOccurred())

			Expect(export.Key).To(Equal("randomuser-exports/2024/05/01/0f6c1c0e-1111-2222-3333-444455556666.json"))
			Expect(export.Count).To(Equal(2))
			Expect(export.Size).To(BeNumerically(">", 0))

			Expect(store.puts).To(HaveLen(1))
			put := store.puts[0]
			Expect(put.opts.Bucket).To(Equal("exports"))
			Expect(put.opts.Key).To(Equal(export.Key))
			Expect(put.opts.ContentType).To(Equal("application/json"))
			Expect(put.opts.Metadata).To(HaveKeyWithValue("count", "2"))
			Expect(int64(len(put.body))).To(Equal(export.Size))
		})

		It("writes the upstream envelope", func() {
			_, err := svc.Create(ctx, 2)
			Expect(err).NotTo(HaveOccurred())

			var doc struct {
				Results []domain.User   `json:"results"`
				Info    randomuser.Info `json:"info"`
			}
			Expect(json.Unmarshal([]byte(store.puts[0].body), &doc)).To(Succeed())
			Expect(doc.Results).To(HaveLen(2))
			Expect(doc.Results[1].Name.First).To(Equal("Lukas"))
			Expect(doc.Info.Seed).To(Equal("seed-1"))
		})

		It("records an export fetch", func() {
			_, err := svc.Create(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(history.records).To(HaveLen(1))
			Expect(history.records[0].Source).To(Equal(domain.FetchSourceExport))
		})

		It("uploads nothing when the fetch fails", func() {
			fetcher.err = randomuser.ErrFetch

			_, err := svc.Create(ctx, 2)
			Expect(err).To(MatchError(randomuser.ErrFetch))
			Expect(store.puts).To(BeEmpty())
		})

		It("surfaces storage failures", func() {
			store.err = errors.New("access denied")

			_, err := svc.Create(ctx, 2)
			Expect(err).To(MatchError("access denied"))
		})
	})

	Describe("List", func() {
		It("lists under the prefix, newest key first", func() {
			store.objects = []storage.ObjectInfo{
				{Key: "randomuser-exports/2024/04/30/a.json", Size: 10},
				{Key: "randomuser-exports/2024/05/01/b.json", Size: 20},
			}

			exports, err := svc.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.listPrefix).To(Equal("randomuser-exports/"))
			Expect(exports).To(HaveLen(2))
			Expect(exports[0].Key).To(Equal("randomuser-exports/2024/05/01/b.json"))
			Expect(exports[0].Size).To(Equal(int64(20)))
		})
	})

	Describe("URL and Delete", func() {
		key := "randomuser-exports/2024/05/01/b.json"

		It("presigns with the configured ttl", func() {
			url, err := svc.URL(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(url).To(ContainSubstring(key))
			Expect(store.urlTTL).To(Equal(10 * time.Minute))
		})

		It("deletes a key", func() {
			Expect(svc.Delete(ctx, key)).To(Succeed())
			Expect(store.deleted).To(Equal([]string{key}))
		})

		DescribeTable("rejecting keys outside the export prefix",
			func(bad string) {
				Expect(svc.Delete(ctx, bad)).To(MatchError(ErrInvalidExportKey))
				_, err := svc.URL(ctx, bad)
				Expect(err).To(MatchError(ErrInvalidExportKey))
				Expect(store.deleted).To(BeEmpty())
			},
			Entry("other prefix", "backups/db.json"),
			Entry("traversal", "randomuser-exports/../backups/db.json"),
			Entry("not json", "randomuser-exports/2024/05/01/b.txt"),
			Entry("empty", ""),
		)
	})

	It("purges one day by prefix", func() {
		Expect(svc.PurgeDay(ctx, time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC))).To(Succeed())
		Expect(store.deletedPrefix).To(Equal([]string{"randomuser-exports/2024/05/01/"}))
	})

	Describe("without storage", func() {
		var disabled ExportService

		BeforeEach(func() {
			disabled = NewExportService(ExportConfig{}, nil, fetcher, history, nil)
		})

		It("refuses every operation", func() {
			_, err := disabled.Create(ctx, 1)
			Expect(err).To(MatchError(ErrExportsDisabled))
			_, err = disabled.List(ctx)
			Expect(err).To(MatchError(ErrExportsDisabled))
			_, err = disabled.URL(ctx, "randomuser-exports/a.json")
			Expect(err).To(MatchError(ErrExportsDisabled))
			Expect(disabled.Delete(ctx, "randomuser-exports/a.json")).To(MatchError(ErrExportsDisabled))
			Expect(disabled.PurgeDay(ctx, time.Now())).To(MatchError(ErrExportsDisabled))
			Expect(fetcher.limits).To(BeEmpty())
		})
	})
})
