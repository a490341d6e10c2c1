/*
Package wsrs implements web-scale reverse substitution: rewriting clean text
so that known long-form expansions appear as their abbreviations, yielding
(original, abbreviated) snippet pairs for training abbreviation expanders.

Documents are cut into multi-sentence snippets of bounded length. Each
snippet is scanned for dictionary expansions that start and end on word
boundaries, then rewritten left to right: at every matched position one
candidate pair is picked uniformly and applied with a configured probability,
and the text of an applied expansion is skipped over so overlapping matches
cannot fire inside it. Snippets whose abbreviated form ends up shorter than
three words are discarded. Every surviving snippet fans out into one record
per applied pair, keyed for downstream grouping and sampling; a snippet that
kept all its text intact emits a single record under the zero Pair.

All randomness flows through the Rand interface and is derived per record
from a job seed and the record key, so any document or snippet reproduces its
exact output when reprocessed, no matter how work is ordered or distributed.
*/
package wsrs
