// Package matching identifies which combinations of up to three reference
// minerals explain a set of observed peak positions.
//
// A search first narrows the reference store to candidates whose strongest
// peak lies near an observed peak, then checks every combination of one, two
// and three candidates: a combination explains the observation when each
// observed peak lies within the tolerance of some peak belonging to one of its
// members. Surviving filename combinations are then collapsed to distinct
// mineral-name tuples for reporting.
package matching
