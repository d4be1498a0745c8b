package config

import "github.com/spf13/pflag"

type flagKind int

const (
	kindBool flagKind = iota
	kindInt
	kindString
	kindStringArray
)

type flagSpec struct {
	name string
	kind flagKind
	help string
}

// passthroughFlagSpecs is the typed registration table backing
// RegisterPassthroughFlags. Every name here must also appear in
// passthroughFlags (fromflags.go), since FromFlags reads these flags
// back out by name once cobra has parsed argv.
var passthroughFlagSpecs = []flagSpec{
	{"pmml", kindBool, "enable parallel Presentation MathML markup"},
	{"nopmml", kindBool, "disable Presentation MathML markup"},
	{"cmml", kindBool, "enable parallel Content MathML markup"},
	{"nocmml", kindBool, "disable Content MathML markup"},
	{"openmath", kindBool, "enable parallel OpenMath markup"},
	{"noopenmath", kindBool, "disable OpenMath markup"},
	{"mathtex", kindBool, "enable parallel TeX-annotated math markup"},
	{"nomathtex", kindBool, "disable TeX-annotated math markup"},
	{"preload", kindStringArray, "a module to preload before conversion (repeatable)"},
	{"preamble", kindString, "TeX preamble file to prepend to each job"},
	{"postamble", kindString, "TeX postamble file to append to each job"},
	{"format", kindString, "target output format"},
	{"profile", kindString, "named conversion profile"},
	{"whatsin", kindString, "input granularity (document, fragment, ...)"},
	{"whatsout", kindString, "output granularity"},
	{"timeout", kindInt, "per-job conversion timeout in seconds"},
	{"expire", kindInt, "idle seconds before the daemon self-terminates"},
	{"includestyles", kindBool, "permit raw style/class file inclusion"},
	{"path", kindStringArray, "additional search path component (repeatable)"},
	{"base", kindString, "base directory for relative paths"},
	{"log", kindString, "daemon-side log file"},
	{"documentid", kindString, "document id to stamp on output"},
	{"quiet", kindBool, "suppress informational messages"},
	{"verbose", kindBool, "increase message verbosity"},
	{"strict", kindBool, "treat recoverable errors as fatal"},
	{"bibtex", kindBool, "run bibtex before conversion"},
	{"xml", kindBool, "force XML output"},
	{"tex", kindBool, "force TeX passthrough"},
	{"noparse", kindBool, "skip math parsing"},
	{"parse", kindBool, "force math parsing"},
	{"cache_key", kindString, "override the daemon option-set cache key"},
	{"post", kindBool, "run post-processing"},
	{"nopost", kindBool, "skip post-processing"},
	{"validate", kindBool, "validate resulting XML"},
	{"novalidate", kindBool, "skip XML validation"},
	{"omitdoctype", kindBool, "omit the output doctype declaration"},
	{"noomitdoctype", kindBool, "include the output doctype declaration"},
	{"numbersections", kindBool, "number sections in output"},
	{"nonumbersections", kindBool, "do not number sections in output"},
	{"timestamp", kindBool, "stamp output with conversion time"},
	{"stylesheet", kindStringArray, "an XSLT stylesheet to apply (repeatable)"},
	{"css", kindStringArray, "a CSS stylesheet to link (repeatable)"},
	{"nodefaultresources", kindBool, "skip copying default CSS/JS resources"},
	{"javascript", kindStringArray, "a JavaScript resource to link (repeatable)"},
	{"icon", kindStringArray, "a favicon resource to link (repeatable)"},
	{"xsltparameter", kindStringArray, "a name=value XSLT stylesheet parameter (repeatable)"},
	{"split", kindBool, "split output into multiple pages"},
	{"nosplit", kindBool, "keep output as a single page"},
	{"splitat", kindString, "sectional unit to split at"},
	{"splitpath", kindString, "naming scheme for split output paths"},
	{"splitnaming", kindString, "naming strategy for split fragments"},
	{"scan", kindBool, "scan document structure before conversion"},
	{"noscan", kindBool, "skip the structure scan pass"},
	{"crossref", kindBool, "generate cross-reference information"},
	{"nocrossref", kindBool, "skip cross-reference generation"},
	{"urlstyle", kindString, "relative vs absolute output URL style"},
	{"navigationtoc", kindBool, "embed a navigation table of contents"},
	{"index", kindBool, "generate a document index"},
	{"noindex", kindBool, "skip index generation"},
	{"splitindex", kindBool, "split the index across pages"},
	{"nosplitindex", kindBool, "keep the index on a single page"},
	{"permutedindex", kindBool, "generate a permuted index"},
	{"nopermutedindex", kindBool, "skip permuted index generation"},
	{"bibliography", kindString, "bibliography database file"},
	{"splitbibliography", kindBool, "split the bibliography across pages"},
	{"nosplitbibliography", kindBool, "keep the bibliography on a single page"},
	{"prescan", kindBool, "run a prescan pass over referenced files"},
	{"dbfile", kindString, "cross-reference database file"},
	{"mathimages", kindBool, "rasterize math as images"},
	{"nomathimages", kindBool, "keep math as markup, not images"},
	{"mathimagemagnification", kindInt, "magnification factor for rasterized math"},
	{"presentationmathml", kindBool, "alias of pmml"},
	{"nopresentationmathml", kindBool, "alias of nopmml"},
	{"linelength", kindInt, "target line length for plain-text math"},
	{"contentmathml", kindBool, "alias of cmml"},
	{"nocontentmathml", kindBool, "alias of nocmml"},
	{"om", kindString, "OpenMath content dictionary base"},
	{"parallelmath", kindBool, "enable parallel-markup math output"},
	{"noparallelmath", kindBool, "disable parallel-markup math output"},
	{"plane1", kindBool, "use Unicode plane-1 math alphanumerics"},
	{"noplane1", kindBool, "use styled markup instead of plane-1 codepoints"},
	{"graphicimages", kindBool, "rasterize graphics inclusions"},
	{"nographicimages", kindBool, "leave graphics inclusions as references"},
	{"graphicsmap", kindString, "graphics format conversion map"},
	{"pictureimages", kindBool, "rasterize picture/tikz environments"},
	{"nopictureimages", kindBool, "leave picture environments as markup"},
	{"svg", kindBool, "render graphics as SVG"},
	{"nosvg", kindBool, "do not render graphics as SVG"},
	{"nocomments", kindBool, "strip comments from output"},
	{"inputencoding", kindString, "input character encoding"},
	{"debug", kindString, "comma-separated list of debug facilities to enable"},
}

// RegisterPassthroughFlags declares every converter pass-through flag on
// fs with the type FromFlags expects back. Booleans default false,
// strings/string-arrays default empty, ints default 0 — only flags the
// user actually sets (Changed) are forwarded as BootOptions.
func RegisterPassthroughFlags(fs *pflag.FlagSet) {
	for _, spec := range passthroughFlagSpecs {
		switch spec.kind {
		case kindBool:
			fs.Bool(spec.name, false, spec.help)
		case kindInt:
			fs.Int(spec.name, 0, spec.help)
		case kindStringArray:
			fs.StringArray(spec.name, nil, spec.help)
		default:
			fs.String(spec.name, "", spec.help)
		}
	}
}
