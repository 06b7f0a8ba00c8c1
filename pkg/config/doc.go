/*
Package config loads lattice's operational knobs from a YAML file,
following the teacher's `gopkg.in/yaml.v3` config idiom: a struct of
nested sections with yaml tags, Unmarshal'd straight from disk, with cmd/latticed
layering cobra flags on top of whatever the file sets.

Default returns the same values as engine.DefaultOptions(), so Load
with an empty or missing path behaves exactly like calling
engine.Open with engine.DefaultOptions() directly. Load unmarshals
onto a Default()-populated struct rather than a zero one, so a config
file only needs to name the knobs it wants to change.
*/
package config
