package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FACorreiaa/skill-registry/config"
	"github.com/FACorreiaa/skill-registry/internal/api/auth"
	"github.com/FACorreiaa/skill-registry/internal/api/skills"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

const benchSkill = `/**
 * @name Benchmark Skill
 * @description Parses a realistic header block
 * @version 1.4.2
 * @author bench
 */
export function run(input: string): string {
	return input.trim();
}
`

func newBenchTokens(b *testing.B) *auth.JWTManager {
	b.Helper()
	tokens, err := auth.NewJWTManager(config.JWTConfig{
		SecretKey:      "benchmark-secret-0123456789abcdefghij",
		Issuer:         "bench",
		AccessTokenTTL: time.Hour,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		b.Fatal(err)
	}
	return tokens
}

func BenchmarkTokenIssue(b *testing.B) {
	tokens := newBenchTokens(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := tokens.Issue(42, "bench"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRequestGate(b *testing.B) {
	tokens := newBenchTokens(b)
	token, err := tokens.Issue(42, "bench")
	if err != nil {
		b.Fatal(err)
	}
	h := auth.Authenticate(tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkConcurrentRequestGate(b *testing.B) {
	tokens := newBenchTokens(b)
	token, err := tokens.Issue(42, "bench")
	if err != nil {
		b.Fatal(err)
	}
	h := auth.Authenticate(tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			h.ServeHTTP(httptest.NewRecorder(), req)
		}
	})
}

func BenchmarkParseMetadata(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = skills.ParseMetadata(benchSkill)
	}
}

func BenchmarkLargeSkillMetadata(b *testing.B) {
	content := benchSkill + strings.Repeat("// filler line\n", 10_000)
	b.SetBytes(int64(len(content)))
	for i := 0; i < b.N; i++ {
		_ = skills.ParseMetadata(content)
	}
}

func BenchmarkSkillJSONSerialization(b *testing.B) {
	desc := "Parses a realistic header block"
	skill := types.SkillWithDetails{
		Skill: types.Skill{
			ID: 1, UserID: 1, Filename: "benchmark-skill.ts", FileSize: len(benchSkill),
			Name: "Benchmark Skill", Description: &desc, Version: "1.4.2", Content: benchSkill,
			IsPublic: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		},
		Tags:  []types.Tag{{ID: 1, Name: "Go", Slug: "go", UsageCount: 3}},
		Owner: types.OwnerView{ID: 1, Username: "bench"},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := json.Marshal(skill); err != nil {
			b.Fatal(err)
		}
	}
}
