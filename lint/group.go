package lint

import (
	"github.com/meysamhadeli/smartlint/changeset"
	"github.com/meysamhadeli/smartlint/detector"
)

// GroupFiles splits a ChangeSet into one FileGroup per detected language,
// in dispatch order. A full-scan ChangeSet yields whole-tree groups; an
// expanded one is grouped file by file like an incremental run. Files of
// languages not in pt never reach any group.
func GroupFiles(cs changeset.ChangeSet, pt detector.ProjectType) []FileGroup {
	langs := pt.Languages()
	groups := make([]FileGroup, len(langs))
	index := make(map[detector.Language]int, len(langs))
	for i, lang := range langs {
		groups[i] = FileGroup{Language: lang, WholeTree: cs.Full}
		index[lang] = i
	}
	if cs.Full {
		return groups
	}

	for _, f := range cs.Files {
		if i, ok := groupOf(f, index); ok {
			groups[i].Files = append(groups[i].Files, f)
		}
	}
	for _, f := range cs.Excluded {
		if i, ok := groupOf(f, index); ok {
			groups[i].Excluded++
		}
	}
	return groups
}

func groupOf(file string, index map[detector.Language]int) (int, bool) {
	lang, ok := detector.LanguageFromPath(file)
	if !ok {
		return 0, false
	}
	i, ok := index[lang]
	return i, ok
}
