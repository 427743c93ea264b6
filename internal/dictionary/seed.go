package dictionary

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
)

//go:embed seeds/*.txt
var seedFiles embed.FS

var seedFileNames = map[int]string{
	1: "seeds/unigrams.txt",
	2: "seeds/bigrams.txt",
	3: "seeds/trigrams.txt",
}

// SeedPhrases returns the built-in high-frequency phrases for gram length n,
// most frequent first.
func SeedPhrases(n int) ([]string, error) {
	name, ok := seedFileNames[n]
	if !ok {
		return nil, fmt.Errorf("no seed list for length %d", n)
	}
	f, err := seedFiles.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening seed list %s: %w", name, err)
	}
	defer f.Close()

	var phrases []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || len(strings.Fields(line)) != n {
			continue
		}
		phrases = append(phrases, line)
	}
	return phrases, sc.Err()
}

// Seed gives the built-in phrases the lowest indices of every
// (variant, length) dictionary that has no counter yet. Phrases are rendered
// per variant and de-duplicated, since several surface phrases can share one
// stem or lemma key. Existing dictionaries are left alone.
func (d *Dictionary) Seed(ctx context.Context, n *token.Normalizer, lengths []int) error {
	for _, length := range lengths {
		phrases, err := SeedPhrases(length)
		if err != nil {
			return err
		}
		tagged := make([][]token.Tagged, 0, len(phrases))
		for _, p := range phrases {
			words, err := n.Phrase(p)
			if err != nil {
				return fmt.Errorf("tagging seed %q: %w", p, err)
			}
			if len(words) == length {
				tagged = append(tagged, words)
			}
		}
		for _, v := range token.Variants {
			keys := make([]string, 0, len(tagged))
			seen := make(map[string]bool, len(tagged))
			for _, words := range tagged {
				g, err := n.Gram(v, words)
				if err != nil {
					return fmt.Errorf("rendering seed: %w", err)
				}
				if !seen[g.Key()] {
					seen[g.Key()] = true
					keys = append(keys, g.Key())
				}
			}
			seeded, err := d.store.SeedTerms(ctx, v, length, keys)
			if err != nil {
				return err
			}
			if seeded {
				d.logger.Info("dictionary seeded", "variant", v, "length", length, "terms", len(keys))
			}
		}
	}
	return nil
}
