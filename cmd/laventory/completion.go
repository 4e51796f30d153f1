package main

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command line for shell completion. Run with
// COMP_INSTALL=1 to install it.
func completion() *complete.Command {
	items := complete.PredictFunc(itemNames)
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"list": {
				Flags: map[string]complete.Predictor{"q": predict.Something},
			},
			"add": {
				Flags: map[string]complete.Predictor{"n": predict.Something},
				Args:  items,
			},
			"remove": {
				Args: items,
			},
			"detect": {
				Flags: map[string]complete.Predictor{"add": predict.Nothing},
				Args:  predict.Files("*"),
			},
			"recipe": {
				Flags: map[string]complete.Predictor{"raw": predict.Nothing},
				Args:  items,
			},
			"token": {
				Flags: map[string]complete.Predictor{
					"user":  predict.Something,
					"email": predict.Something,
				},
			},
			"help":  {},
			"flags": {},
		},
	}
}
