package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/WessleyAI/wessley-sales/engine/catalog"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/internal/app"
	"github.com/WessleyAI/wessley-sales/pkg/config"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
)

type scriptedLLM struct{}

func (scriptedLLM) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(strings.ToLower(text), "versa") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

func (scriptedLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	if req.MaxTokens == 8 {
		if strings.Contains(req.Prompt, "garantía tienen") {
			return "GENERAL", nil
		}
		return "CATALOG_SEARCH", nil
	}
	return "La garantía es de 3 meses o 3,000 km.", nil
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := newCLI(strings.NewReader(stdin), &out)
	c.loadConfig = func() (*config.Config, error) {
		return &config.Config{
			Search:    config.SearchConfig{Index: "linear", TopK: 3},
			State:     config.StateConfig{Store: "memory"},
			Assistant: config.AssistantConfig{ClassifyAttempts: 1, AnnualRate: 0.10, HistoryTurns: 3},
		}, nil
	}
	c.newApp = func(ctx context.Context, cfg *config.Config, logger *slog.Logger, o app.Options) (*app.App, error) {
		if !o.SkipNATS {
			t.Error("cli must not publish turn events")
		}
		o.LLM = scriptedLLM{}
		o.Source = catalog.SourceFunc(func(context.Context) ([]domain.Vehicle, error) {
			return []domain.Vehicle{
				{ID: "A1", Make: "Nissan", Model: "Versa", Year: 2020, Price: 215000, Mileage: 45000},
				{ID: "B2", Make: "Kia", Model: "Rio", Year: 2019, Price: 199000, Mileage: 52000},
			}, nil
		})
		return app.New(ctx, cfg, logger, o)
	}
	root := newRootCmd(c)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFinanceCmd(t *testing.T) {
	out, err := run(t, "", "finance", "--price", "300000", "--down", "60000", "--years", "5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Mensualidad: $5,099.29 MXN") {
		t.Errorf("out:\n%s", out)
	}

	out, err = run(t, "", "finance", "-p", "300000", "-d", "60000", "-y", "5", "--json")
	if err != nil || !strings.Contains(out, `"monthly_payment": 5099.29`) {
		t.Errorf("json out = %s, err = %v", out, err)
	}

	if _, err := run(t, "", "finance", "--price", "300000", "--down", "60000", "--years", "7"); !domain.IsValidation(err) {
		t.Errorf("unsupported term err = %v", err)
	}

	out, err = run(t, "", "finance", "--price", "400000", "--options", "--max-monthly", "9000")
	if err != nil || !strings.HasPrefix(out, "Opciones de financiamiento:") {
		t.Errorf("options out = %s, err = %v", out, err)
	}
}

func TestSearchCmd(t *testing.T) {
	out, err := run(t, "", "search", "quiero", "un", "Versa", "-k", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2020 Nissan Versa") || strings.Contains(out, "Kia") {
		t.Errorf("out:\n%s", out)
	}
}

func TestChatCmd_SingleMessage(t *testing.T) {
	out, err := run(t, "", "chat", "¿Qué", "garantía", "tienen?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "[GENERAL] La garantía es de 3 meses") {
		t.Errorf("out:\n%s", out)
	}
}

func TestChatCmd_Interactive(t *testing.T) {
	out, err := run(t, "Busco un Versa\n\nsalir\nno llega\n", "chat", "--user", "tester")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[CATALOG_SEARCH] Encontré 1 opción") {
		t.Errorf("out:\n%s", out)
	}
	if strings.Count(out, "[") != 1 {
		t.Errorf("expected one turn before salir:\n%s", out)
	}
}
