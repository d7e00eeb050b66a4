package gesture

import "github.com/ayusman/jutsu/internal/detector"

// Rules holds the finger-count thresholds the classifier uses.
// They are heuristics and are meant to be tuned through configuration.
type Rules struct {
	RamMinSum   int `json:"ram_min_sum"`
	RamMaxSum   int `json:"ram_max_sum"`
	DogMaxSum   int `json:"dog_max_sum"`
	HorseMinSum int `json:"horse_min_sum"`
}

// DefaultRules returns the stock thresholds.
func DefaultRules() Rules {
	return Rules{
		RamMinSum:   2,
		RamMaxSum:   3,
		DogMaxSum:   4,
		HorseMinSum: 4,
	}
}

// Classifier reduces hand observations to a single seal.
// It is stateless; the same input always yields the same seal.
type Classifier struct {
	rules Rules
}

// NewClassifier creates a Classifier with the given rules.
func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the seal of the first hand that matches any rule.
// Rules are tried in order Ram, Dog, Horse for each hand before moving on
// to the next hand. Returns None when no hand matches.
func (c *Classifier) Classify(hands []detector.HandObservation) Gesture {
	for _, hand := range hands {
		if g := c.classifyHand(hand); g != None {
			return g
		}
	}
	return None
}

func (c *Classifier) classifyHand(hand detector.HandObservation) Gesture {
	f := hand.Fingers
	sum := hand.Sum()

	switch {
	case sum >= c.rules.RamMinSum && sum <= c.rules.RamMaxSum && f[detector.Index]:
		return Ram
	case f[detector.Thumb] && f[detector.Pinky] && sum <= c.rules.DogMaxSum:
		return Dog
	case sum >= c.rules.HorseMinSum:
		return Horse
	}
	return None
}
