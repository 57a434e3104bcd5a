// Package teller classifies free-text bank complaints into the fixed
// category set of a trained dataset, using pre-trained TF-IDF vectorizers
// and linear classifiers.
//
// Quick start:
//
//	t, err := teller.New(teller.WithArtifactDir("models/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close()
//
//	res, err := t.Classify(ctx, 1, "I was charged an annual fee on my credit card", "logistic")
//	if errors.Is(err, teller.ErrEmptyInput) {
//	    // ask the user for more detail
//	}
//	fmt.Println(res.DisplayName, res.Icon) // Credit Card ri-bank-card-line
//
// Artifacts are loaded on first use and cached for the life of the Teller.
// A Teller is safe for concurrent use; create one and share it.
package teller
