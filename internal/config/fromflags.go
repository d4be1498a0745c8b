package config

import (
	"github.com/spf13/pflag"

	"github.com/dginev/latexrun/internal/worker"
)

// passthroughFlags are the converter pass-through options recognized by
// the CLI surface (spec §6): boolean toggles contribute just their key
// when set, string/int options contribute key=value, and repeatable
// options (preload, path) contribute one BootOption per value.
var passthroughFlags = []string{
	"pmml", "nopmml", "cmml", "nocmml", "openmath", "noopenmath",
	"mathtex", "nomathtex",
	"preload", "preamble", "postamble", "format", "profile",
	"whatsin", "whatsout", "timeout", "expire", "includestyles", "path",
	"base", "log", "documentid", "quiet", "verbose", "strict", "bibtex",
	"xml", "tex", "noparse", "parse", "cache_key", "post", "nopost",
	"validate", "novalidate", "omitdoctype", "noomitdoctype",
	"numbersections", "nonumbersections", "timestamp", "stylesheet",
	"css", "nodefaultresources", "javascript", "icon", "xsltparameter",
	"split", "nosplit", "splitat", "splitpath", "splitnaming", "scan",
	"noscan", "crossref", "nocrossref", "urlstyle", "navigationtoc",
	"index", "noindex", "splitindex", "nosplitindex", "permutedindex",
	"nopermutedindex", "bibliography", "splitbibliography",
	"nosplitbibliography", "prescan", "dbfile", "mathimages",
	"nomathimages", "mathimagemagnification", "presentationmathml",
	"nopresentationmathml", "linelength", "contentmathml",
	"nocontentmathml", "om", "parallelmath", "noparallelmath", "plane1",
	"noplane1", "graphicimages", "nographicimages", "graphicsmap",
	"pictureimages", "nopictureimages", "svg", "nosvg", "nocomments",
	"inputencoding", "debug",
}

// FromFlags walks flags in the order passthroughFlags lists them,
// picking up every one the user actually set (pflag.Changed), and
// returns the resulting BootOption list canonicalized per the daemon's
// math-option ordering requirement.
func FromFlags(fs *pflag.FlagSet) []worker.BootOption {
	var opts []worker.BootOption
	for _, name := range passthroughFlags {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		opts = append(opts, flagToBootOptions(f)...)
	}
	return CanonicalizeBootOptions(opts)
}

func flagToBootOptions(f *pflag.Flag) []worker.BootOption {
	switch f.Value.Type() {
	case "bool":
		return []worker.BootOption{{Key: f.Name}}
	case "stringArray", "stringSlice":
		values := f.Value.(pflag.SliceValue).GetSlice()
		opts := make([]worker.BootOption, 0, len(values))
		for _, v := range values {
			opts = append(opts, worker.BootOption{Key: f.Name, Value: v})
		}
		return opts
	default:
		return []worker.BootOption{{Key: f.Name, Value: f.Value.String()}}
	}
}
