package domfront

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"honnef.co/go/domfront/ssacfg"
)

func TestDomfront(t *testing.T) {
	results := analysistest.Run(t, analysistest.TestData(), Analyzer, "a")
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	res, ok := results[0].Result.(*Result)
	if !ok {
		t.Fatalf("result has type %T", results[0].Result)
	}

	names := map[string]bool{}
	for _, fn := range res.Functions() {
		names[fn.Name()] = true
		a := res.Of(fn)
		if a == nil {
			t.Errorf("no analysis for %s", fn)
			continue
		}
		if err := ssacfg.Verify(fn, a.Idom); err != nil {
			t.Error(err)
		}
	}
	for _, name := range []string{"Straight", "Branch", "Loop", "Add", "closure", "closure$1"} {
		if !names[name] {
			t.Errorf("function %s was not analyzed", name)
		}
	}
}
