package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nooreldin2735/exams-console/internal/config"
	"github.com/nooreldin2735/exams-console/internal/model"
	"github.com/nooreldin2735/exams-console/internal/upstream"
)

func TestCatalogWithoutRedisReadsThrough(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"ID":1,"Name":"2026"}]`))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{UpstreamBaseURL: srv.URL, UpstreamTimeout: 2 * time.Second}
	api := upstream.NewClient(cfg, zerolog.Nop())
	catalog := NewCatalogService(api, nil, time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		years, err := catalog.Years(context.Background(), "tok")
		if err != nil {
			t.Fatal(err)
		}
		if len(years) != 1 {
			t.Fatalf("years %+v", years)
		}
	}
	// No cache configured, so every read goes upstream.
	if hits.Load() != 3 {
		t.Fatalf("upstream hits %d", hits.Load())
	}
}

func TestCreateQuestionWithoutRedis(t *testing.T) {
	var posted atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/questions/create" {
			posted.Store(true)
			w.WriteHeader(http.StatusCreated)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{UpstreamBaseURL: srv.URL, UpstreamTimeout: 2 * time.Second}
	api := upstream.NewClient(cfg, zerolog.Nop())
	catalog := NewCatalogService(api, nil, time.Minute, zerolog.Nop())

	lecture := int64(5)
	err := catalog.CreateQuestion(context.Background(), "tok", model.Question{
		Question:  "q",
		Answers:   "a",
		LectureID: &lecture,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !posted.Load() {
		t.Fatal("question never reached the upstream")
	}
}
