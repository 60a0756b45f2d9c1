// Package harness runs mapping scenarios against a session.
//
// A scenario names the documents a mapping is written against, the
// stylesheet to import, a sequence of edits and the assertions that must
// hold afterwards. Every update the session publishes is recorded in an
// in-memory store, so scenarios can also assert on snapshot history.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: stale_source_field
//	description: "Removing a source field prunes the mappings that read it"
//	documents:
//	  source: source.cue
//	  target: target.yaml
//	  params: [cart.json]
//	mappings: shiporder.xsl
//	steps:
//	  - op: update_document
//	    definition: source_no_title.yaml
//	    expect_policy: remove-stale
//	  - op: delete_parameter
//	    name: cart
//	assertions:
//	  - type: expression_absent
//	    expression: Title
//	  - type: link_count
//	    count: 3
//
// Paths are relative to the scenario file.
//
// # Steps
//
//   - update_document: replaces the document the definition describes
//   - add_parameter: registers a primitive parameter
//   - delete_parameter: removes a parameter and the items that use it
//   - import: replaces the mappings with another stylesheet
//
// # Assertion Types
//
//   - expression_present / expression_absent: an item carries the expression
//   - link_contains: a link reads the given source path
//   - link_count: the number of links
//   - params: the declared parameter names, in order
//   - snapshot_count: the number of distinct snapshots recorded
//
// The final stylesheet of a scenario can be compared against
// testdata/golden/<name>.golden with RunWithGolden.
package harness
