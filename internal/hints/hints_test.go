package hints_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lexivox/lexivox/internal/hints"
	"github.com/lexivox/lexivox/internal/vocab"
	"github.com/lexivox/lexivox/pkg/provider/llm"
	"github.com/lexivox/lexivox/pkg/provider/llm/mock"
)

func TestTip_UsesModelResponse(t *testing.T) {
	t.Parallel()
	p := &mock.Provider{
		CompleteResult: &llm.CompletionResponse{Content: "  Stretch the 'ar' sound, like in 'car'.  "},
	}
	g := hints.New(p, nil)

	tip, err := g.Tip(context.Background(), hints.Request{
		Word:       vocab.Word{Text: "Spark", Phonetic: "spɑːrk"},
		Transcript: "spork",
		Similarity: 0.8,
	})
	if err != nil {
		t.Fatalf("Tip: %v", err)
	}
	if tip != "Stretch the 'ar' sound, like in 'car'." {
		t.Errorf("tip = %q; want trimmed model response", tip)
	}

	if p.CallCount() != 1 {
		t.Fatalf("Complete calls = %d; want 1", p.CallCount())
	}
	req := p.CompleteCalls[0]
	if req.SystemPrompt == "" {
		t.Error("system prompt not set")
	}
	user := req.Messages[len(req.Messages)-1].Content
	for _, want := range []string{"Spark", "spɑːrk", "spork", "80%"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestTip_FallsBackOnModelError(t *testing.T) {
	t.Parallel()
	p := &mock.Provider{CompleteErr: errors.New("rate limited")}
	g := hints.New(p, nil)

	tip, err := g.Tip(context.Background(), hints.Request{
		Word:       vocab.Word{Text: "Spark"},
		Transcript: "spork",
		Similarity: 0.8,
	})
	if err != nil {
		t.Fatalf("Tip: model failure must not surface: %v", err)
	}
	if !strings.Contains(tip, "Spark") {
		t.Errorf("static tip = %q; should mention the target word", tip)
	}
}

func TestTip_FallsBackOnEmptyResponse(t *testing.T) {
	t.Parallel()
	p := &mock.Provider{CompleteResult: &llm.CompletionResponse{Content: "   "}}
	g := hints.New(p, nil)

	tip, err := g.Tip(context.Background(), hints.Request{Word: vocab.Word{Text: "Nut"}})
	if err != nil {
		t.Fatalf("Tip: %v", err)
	}
	if tip == "" {
		t.Error("expected a static tip for a blank model response")
	}
}

func TestTip_NoProvider(t *testing.T) {
	t.Parallel()
	g := hints.New(nil, nil)

	tests := []struct {
		name string
		req  hints.Request
		want string
	}{
		{
			name: "no transcript",
			req:  hints.Request{Word: vocab.Word{Text: "Spark"}},
			want: "one sound at a time",
		},
		{
			name: "close attempt",
			req:  hints.Request{Word: vocab.Word{Text: "Spark"}, Transcript: "spork", Similarity: 0.8},
			want: "Almost",
		},
		{
			name: "far attempt",
			req:  hints.Request{Word: vocab.Word{Text: "Spark"}, Transcript: "banana", Similarity: 0.1},
			want: "Listen to the example",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tip, err := g.Tip(context.Background(), tc.req)
			if err != nil {
				t.Fatalf("Tip: %v", err)
			}
			if !strings.Contains(tip, tc.want) {
				t.Errorf("tip = %q; want it to contain %q", tip, tc.want)
			}
		})
	}
}

func TestTip_EmptyWord(t *testing.T) {
	t.Parallel()
	g := hints.New(nil, nil)

	if _, err := g.Tip(context.Background(), hints.Request{}); err == nil {
		t.Fatal("Tip with empty target word should fail")
	}
}
