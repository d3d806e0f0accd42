// Package build renders a whole site tree.
//
// A Builder walks the source directory, hands every file to the template
// factory on a bounded worker pool and writes the results under the output
// directory. A failed file aborts only that file unless the request asks to
// fail fast. Outcomes are recorded in the render journal, which also lets
// incremental builds skip sources whose content has not changed.
package build
