package watcher

import "path/filepath"

// RebuildPlan describes what changed and which pipeline steps need to re-run
type RebuildPlan struct {
	NeedTypecheck bool
	ChangedFiles  []string
}

// Classify maps a changed path to a change type. The second return value is
// false for files the pipeline does not care about (editor swap files,
// build outputs, unrelated assets).
func Classify(path string) (ChangeType, bool) {
	if configFiles[filepath.Base(path)] {
		return ChangeTypeConfig, true
	}

	switch filepath.Ext(path) {
	case ".ts", ".tsx", ".js", ".jsx", ".mts", ".vue":
		return ChangeTypeSource, true
	case ".css", ".scss", ".html", ".svg":
		return ChangeTypeStyle, true
	}

	return ChangeTypeNone, false
}

// AnalyzeChanges determines which pipeline steps need to re-run based on what changed
func AnalyzeChanges(event ChangeEvent) *RebuildPlan {
	plan := &RebuildPlan{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeConfig:
		// Config changes may alter compiler settings; re-run everything
		plan.NeedTypecheck = true

	case ChangeTypeSource:
		// Source changes need a fresh type-check before bundling
		plan.NeedTypecheck = true

	case ChangeTypeStyle:
		// Styles and markup carry no types; bundling alone is enough
		plan.NeedTypecheck = false
	}

	return plan
}
