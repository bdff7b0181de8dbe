// Package recipe asks a generative text endpoint for recipe suggestions.
package recipe

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultPlanDays is the length of a meal plan when none is requested.
const DefaultPlanDays = 7

// ProductPrompt asks for dishes built around one product, optionally with extra ingredients.
func ProductPrompt(productName string, ingredients []string, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest a few home-cooking recipes that use %s.\n", productName)
	if extra := joinNonBlank(ingredients); extra != "" {
		fmt.Fprintf(&b, "Ingredients that can be used together with it: %s.\n", extra)
	}
	b.WriteString("For each recipe give the ingredients, the cooking steps and the cooking time.\n")
	fmt.Fprintf(&b, "Answer in %s.\n", language)
	return b.String()
}

// PlanPrompt asks for a breakfast, lunch and dinner plan over days that uses up expiring ingredients.
// Preferences are appended as "- key: value" lines sorted by key.
func PlanPrompt(ingredients []string, preferences map[string]string, days int, language string) string {
	if days <= 0 {
		days = DefaultPlanDays
	}
	var b strings.Builder
	fmt.Fprintf(&b, "These ingredients in my fridge are about to expire: %s.\n", joinNonBlank(ingredients))
	fmt.Fprintf(&b, "Recommend quick recipes that use them for %d days.\n", days)
	b.WriteString("For every day plan breakfast, lunch and dinner. For each meal list the ingredients used, " +
		"the cooking method, estimated calories, cooking time, difficulty and nutrition information.\n")
	fmt.Fprintf(&b, "Write the recipes in %s and keep waste of the expiring ingredients to a minimum.\n", language)

	keys := make([]string, 0, len(preferences))
	for k := range preferences {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, preferences[k])
	}
	return b.String()
}

func joinNonBlank(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}

func hasIngredients(values []string) bool {
	return joinNonBlank(values) != ""
}
