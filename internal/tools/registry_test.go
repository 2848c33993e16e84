package tools

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/mkarlsen/stratagem/internal/models"
)

type fakeTool struct {
	name   string
	kind   models.TaskKind
	params map[string]ParamSpec
}

func (f *fakeTool) Name() string                     { return f.name }
func (f *fakeTool) Kind() models.TaskKind            { return f.kind }
func (f *fakeTool) Parameters() map[string]ParamSpec { return f.params }

func (f *fakeTool) Execute(context.Context, map[string]any) *models.ToolOutcome {
	return models.Succeed(nil)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	tool := &fakeTool{name: "yahoo_finance", kind: models.KindFetch}
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := r.Lookup("yahoo_finance")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != Tool(tool) {
		t.Error("Lookup returned a different tool")
	}
	if err := r.Register(&fakeTool{name: "yahoo_finance"}); err == nil {
		t.Error("duplicate registration must fail")
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("nope")
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("err = %v, want ErrToolNotFound", err)
	}
}

func TestRegistryNamesKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		r.MustRegister(&fakeTool{name: name, kind: models.KindFetch})
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("Names() = %v", got)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d", r.Len())
	}
}

func TestRegistryByKind(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&fakeTool{name: "fetcher", kind: models.KindFetch})
	r.MustRegister(&fakeTool{name: "analyzer", kind: models.KindAnalyze})
	r.MustRegister(&fakeTool{name: "charter", kind: models.KindVisualize})

	got := r.ByKind(models.KindAnalyze)
	if len(got) != 1 || got[0].Name() != "analyzer" {
		t.Errorf("ByKind(analyze) = %v", got)
	}
	if r.ByKind(models.KindReport) != nil {
		t.Error("ByKind with no matches should return nil")
	}
}

func TestNormalizeParamsFillsDefaults(t *testing.T) {
	tool := &fakeTool{
		name: "yahoo_finance",
		params: map[string]ParamSpec{
			"symbol": {Type: "string", Required: true},
			"period": {Type: "string", Default: "1y"},
		},
	}
	in := map[string]any{"symbol": "AAPL"}
	out, err := NormalizeParams(tool, in)
	if err != nil {
		t.Fatalf("NormalizeParams: %v", err)
	}
	if out["period"] != "1y" {
		t.Errorf("period = %v, want default", out["period"])
	}
	if _, leaked := in["period"]; leaked {
		t.Error("input map must not be mutated")
	}
}

func TestNormalizeParamsReportsMissingSorted(t *testing.T) {
	tool := &fakeTool{
		name: "technical_analyzer",
		params: map[string]ParamSpec{
			"symbol": {Required: true},
			"data":   {Required: true},
		},
	}
	_, err := NormalizeParams(tool, nil)
	if !errors.Is(err, ErrParameterInvalid) {
		t.Fatalf("err = %v, want ErrParameterInvalid", err)
	}
	if !strings.Contains(err.Error(), "requires data, symbol") {
		t.Errorf("missing params should be listed sorted, got %v", err)
	}
}

func TestParamHelpers(t *testing.T) {
	params := map[string]any{
		"symbol":     "AAPL",
		"empty":      "",
		"capital":    10000.0,
		"window":     20,
		"indicators": []any{"sma", "rsi"},
		"native":     []string{"macd"},
		"verbose":    true,
		"returns":    []any{0.01, -0.02},
		"weights":    []float64{0.5, 0.5},
	}
	if v, ok := StringParam(params, "symbol"); !ok || v != "AAPL" {
		t.Errorf("StringParam symbol = %q %v", v, ok)
	}
	if _, ok := StringParam(params, "empty"); ok {
		t.Error("empty strings should read as absent")
	}
	if v, ok := FloatParam(params, "capital"); !ok || v != 10000.0 {
		t.Errorf("FloatParam capital = %v %v", v, ok)
	}
	if v, ok := FloatParam(params, "window"); !ok || v != 20.0 {
		t.Errorf("FloatParam int = %v %v", v, ok)
	}
	if v, ok := StringsParam(params, "indicators"); !ok || !reflect.DeepEqual(v, []string{"sma", "rsi"}) {
		t.Errorf("StringsParam decoded = %v %v", v, ok)
	}
	if v, ok := StringsParam(params, "native"); !ok || !reflect.DeepEqual(v, []string{"macd"}) {
		t.Errorf("StringsParam native = %v %v", v, ok)
	}
	if _, ok := StringsParam(params, "symbol"); ok {
		t.Error("non-list should not read as strings")
	}
	if v, ok := BoolParam(params, "verbose"); !ok || !v {
		t.Errorf("BoolParam verbose = %v %v", v, ok)
	}
	if _, ok := BoolParam(params, "symbol"); ok {
		t.Error("non-bool should not read as bool")
	}
	if v, ok := FloatsParam(params, "returns"); !ok || !reflect.DeepEqual(v, []float64{0.01, -0.02}) {
		t.Errorf("FloatsParam decoded = %v %v", v, ok)
	}
	if v, ok := FloatsParam(params, "weights"); !ok || !reflect.DeepEqual(v, []float64{0.5, 0.5}) {
		t.Errorf("FloatsParam native = %v %v", v, ok)
	}
}
