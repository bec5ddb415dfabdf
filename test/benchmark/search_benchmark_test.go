package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/booster"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/extractor"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/pipeline"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/textproc"
)

func newRetriever(b *testing.B, n int) *retrieval.Retriever {
	b.Helper()
	r, err := retrieval.New(mustBuild(b, syntheticSnippets(n)))
	if err != nil {
		b.Fatalf("creating retriever: %v", err)
	}
	return r
}

// BenchmarkRetrieverQuery measures top-k selection over 10 000 snippets.
func BenchmarkRetrieverQuery(b *testing.B) {
	r := newRetriever(b, 10000)
	for _, k := range []int{3, 10, 50} {
		b.Run(fmt.Sprintf("k_%d", k), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				cands := r.Query("how does the deductible work with copay", k)
				_ = cands
			}
		})
	}
}

// BenchmarkRerank measures the keyword-match boost and stable sort.
func BenchmarkRerank(b *testing.B) {
	r := newRetriever(b, 10000)
	cands := r.Query("deductible copay network appeal", 50)
	terms := textproc.ContentTerms("deductible copay network appeal")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		boosted := booster.Rerank(cands, terms)
		_ = boosted
	}
}

// BenchmarkBestSentence measures sentence extraction on a long snippet.
func BenchmarkBestSentence(b *testing.B) {
	text := sampleTexts["long"]
	terms := textproc.ContentTerms("When can denied claims be appealed?")

	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		s := extractor.BestSentence(text, terms)
		_ = s
	}
}

// BenchmarkPipelineAnswer measures a full uncached answer.
func BenchmarkPipelineAnswer(b *testing.B) {
	p := pipeline.New(newRetriever(b, 10000), nil, analytics.NewRecorder(analytics.DefaultWindow))
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Answer(ctx, "Does the plan cover specialist referral?", 3); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPipelineAnswerParallel measures answers under contention on the
// latency recorder.
func BenchmarkPipelineAnswerParallel(b *testing.B) {
	p := pipeline.New(newRetriever(b, 10000), nil, analytics.NewRecorder(analytics.DefaultWindow))
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := p.Answer(ctx, "Does the plan cover specialist referral?", 3); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkRateLimiterAllow measures bucket checks spread over 1000 keys.
func BenchmarkRateLimiterAllow(b *testing.B) {
	l := ratelimit.New(1_000_000)
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = l.Allow(keys[i%len(keys)])
	}
}
