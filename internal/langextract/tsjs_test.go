package langextract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTSJS_RelativeAlwaysKept(t *testing.T) {
	src := `
import Foo from "./foo";
import { bar } from "../bar";
export { baz } from "./baz";
const x = require("./qux");
async function f() { const m = await import("./dynamic"); }
`
	res := ExtractTSJS(src, nil, false)
	require.Equal(t, []string{"../bar", "./baz", "./dynamic", "./foo", "./qux"}, res.Specifiers)
}

func TestExtractTSJS_AbsoluteFilteredByInternalPrefix(t *testing.T) {
	src := `
import react from "react";
import internalThing from "@myorg/widgets/button";
import other from "@other/thing";
`
	internal := map[string]struct{}{"@myorg/widgets": {}}
	res := ExtractTSJS(src, internal, false)
	require.Equal(t, []string{"@myorg/widgets/button"}, res.Specifiers)
}

func TestExtractTSJS_IncludeAbsoluteKeepsEverything(t *testing.T) {
	src := `import react from "react";`
	res := ExtractTSJS(src, nil, true)
	require.Equal(t, []string{"react"}, res.Specifiers)
}

func TestExtractTSJS_IgnoresSpecsInsideComments(t *testing.T) {
	src := `
// import "./ignored-line";
/* import "./ignored-block"; */
import real from "./real";
const s = "import \"./not-a-real-import\" inside a string literal";
`
	res := ExtractTSJS(src, nil, true)
	require.Equal(t, []string{"./real"}, res.Specifiers)
}

func TestExtractTSJS_Deduplicates(t *testing.T) {
	src := `
import a from "./mod";
import { b } from "./mod";
`
	res := ExtractTSJS(src, nil, true)
	require.Equal(t, []string{"./mod"}, res.Specifiers)
}

func TestStripComments_StringAware(t *testing.T) {
	src := "const u = \"http://not-a-comment\"; // real comment\n/* block */ const v = 1;"
	out := StripComments(src)
	require.Contains(t, out, `"http://not-a-comment"`)
	require.NotContains(t, out, "real comment")
	require.NotContains(t, out, "block")
}
