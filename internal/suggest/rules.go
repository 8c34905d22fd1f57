package suggest

import "guthealth-planner/internal/plan"

// blacklist is the program-wide list of banned food categories. It applies in
// every phase and is transmitted verbatim to the model.
const blacklist = `FORBIDDEN FOOD CATEGORIES (never use, any phase):
1. Industrial meat: beef, pork, factory-farmed poultry.
2. Refined starches: wheat flour, noodles, bread, corn cakes, fries, pastries, cookies, breakfast cereal, refined starch of any kind.
3. Sweeteners & additives: sugar, MSG, artificial sweeteners (aspartame), diet drinks, maltodextrin.
4. Lectin-heavy legumes: peas, mung beans, chickpeas, soy, tofu, edamame, TVP, bean sprouts, lentils.
5. Seeds & nuts: pumpkin seeds, sunflower seeds, chia, peanuts, cashews.
6. Nightshades & cucurbits: zucchini, winter melon, squashes, melons, cucumber, eggplant, tomato, bell pepper, goji berries.
7. A1 dairy: milk, yogurt (including Greek), ice cream, frozen yogurt, cheese.
8. Grains & grasses: brown rice, wheat, oats, quinoa, rye, buckwheat, corn, corn starch, corn syrup, popcorn, barley grass, wheatgrass.
9. Seed oils: soybean, grapeseed, corn, sunflower, partially hydrogenated oils, peanut, cottonseed, safflower, canola.

SPECIAL PROGRAM RULES:
- BANANA: never ripe banana. Only GREEN banana, steamed or boiled.
- FRUIT: only low-sugar fruit (e.g. avocado, lime). Never high-sugar fruit.
- DRINKS: absolutely no coconut water.`

// phaseRules carries the per-phase additions to the blacklist. The phase is
// derived from the day number upstream; changing the day can change which of
// these applies even when the slot targets stay the same.
var phaseRules = map[plan.Phase]string{
	plan.PhaseReset: `PHASE 1 (days 1-3, reset): strictest window. No starchy tubers of any
kind. Meals stay light and easily digestible to rest the gut lining.`,
	plan.PhaseRepair: `PHASE 2 (days 4-21, repair): allowed starches are sweet potato, cassava
and taro only. No potato, corn or rice. Pressure-cooked lentils are permitted
solely for vegetarians. Rebuild variety gradually.`,
	plan.PhaseMaintenance: `PHASE 3 (after day 21, maintenance): the blacklist still applies in
full, but portions may be more generous and reintroduction of tolerated foods
can be suggested with an explicit note on what to watch for.`,
}
