package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractScenarios(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		flavor   string
		desc     string
		expected bool
	}{
		{"emoji after announcement", "VANILLA BEAN is our flavor of the day! 🍦", "VANILLA BEAN", "", true},
		{"labeled with placeholder description", "Flavor: Turtle Sundae\nDescription: No description available", "Turtle Sundae", "", true},
		{"labeled with description", "Flavor: Turtle Sundae\nDescription: Vanilla custard with caramel and pecans", "Turtle Sundae", "Vanilla custard with caramel and pecans", true},
		{"mixed case before", "Mint Oreo is the flavor of the day", "Mint Oreo", "", true},
		{"flavor of the day colon", "Flavor of the Day: Chocolate Peanut Butter", "Chocolate Peanut Butter", "", true},
		{"simple flavor colon", "Flavor: Vanilla Bean", "Vanilla Bean", "", true},
		{"todays flavor colon", "Today's flavor: Strawberry Cheesecake", "Strawberry Cheesecake", "", true},
		{"todays flavor is with dash description", "Today's flavor is Orange Dream - orange and vanilla custard swirled together.", "Orange Dream", "orange and vanilla custard swirled together", true},
		{"today colon", "Today: Mint Chocolate Chip", "Mint Chocolate Chip", "", true},
		{"emoji truncates", "Flavor of the Day: Cookie Dough 🍪 Hope you enjoy!", "Cookie Dough", "", true},
		{"next line fallback", "what flavor do we have?\nChocolate Chip\nCome visit us!", "Chocolate Chip", "", true},
		{"exclamation", "Flavor of the Day: Pumpkin Pie! Come get it today", "Pumpkin Pie", "", true},
		{"double space", "Flavor of the Day: Lemon Berry  Available until 9pm", "Lemon Berry", "", true},
		{"heading then next line", "Today's Flavor\nRaspberry Truffle\nCome visit us!", "Raspberry Truffle", "", true},
		{"flavor of the day is", "Flavor of the day is Cherry Vanilla!", "Cherry Vanilla", "", true},
		{"newline termination", "Flavor of the Day: Turtle Sundae\nCome try it today!", "Turtle Sundae", "", true},
		{"ampersand", "Today's flavor: Cookies & Cream", "Cookies & Cream", "", true},
		{"entity ampersand", "Today's flavor: Cookies &amp; Cream", "Cookies & Cream", "", true},
		{"entity apostrophe", "Flavor of the Day: S&#39;mores &amp; Graham", "S'mores & Graham", "", true},
		{"entity quote", "Flavor of the Day: Grandma&quot;s Peach", `Grandma"s Peach`, "", true},
		{"decorative runs", "Flavor: *** Butter Pecan ***", "Butter Pecan", "", true},
		{"bullets", "Flavor of the Day: •• Mint Explosion ••", "Mint Explosion", "", true},
		{"short caps", "CHOCOLATE is the flavor of the day", "CHOCOLATE", "", true},
		{"too short", "Flavor: Hi", "", "", false},
		{"too long", "Flavor: " + strings.Repeat("A", 150), "", "", false},
		{"no match", "Welcome to our page! Check back later for updates.", "", "", false},
		{"empty", "", "", "", false},
		{"placeholder name", "Flavor: Closed", "", "", false},
	}

	for _, tc := range testCases {
		frag, ok := Extract(tc.input, Default)
		if ok != tc.expected {
			t.Errorf("%s: Extract(%q) ok = %v, expected %v (got %+v)", tc.name, tc.input, ok, tc.expected, frag)
			continue
		}
		if !ok {
			if frag.FlavorName != "" || frag.Description != "" {
				t.Errorf("%s: miss returned a non-empty fragment %+v", tc.name, frag)
			}
			continue
		}
		if frag.FlavorName != tc.flavor {
			t.Errorf("%s: flavor expected %q, got %q", tc.name, tc.flavor, frag.FlavorName)
		}
		if frag.Description != tc.desc {
			t.Errorf("%s: description expected %q, got %q", tc.name, tc.desc, frag.Description)
		}
	}
}

func TestExtractComplexPost(t *testing.T) {
	t.Parallel()

	text := `Good morning everyone! 🌞

SALTED CARAMEL is our flavor of the day today!

Stop by and try it while supplies last. Open until 10pm.
	`
	frag, ok := Extract(text, Announcement)
	require.True(t, ok)
	require.Equal(t, "SALTED CARAMEL", frag.FlavorName)
}

func TestExtractRealisticFeedPost(t *testing.T) {
	t.Parallel()

	text := "Big Deal Burgers & Custard\n1d\n\n·\n" +
		"Today's flavor is Orange Dream - orange and vanilla custard swirled together.\n" +
		"All reactions:\n26\n2\n6\nLike\nComment"

	frag, ok := Extract(text, Announcement)
	require.True(t, ok)
	require.Equal(t, "Orange Dream", frag.FlavorName)
	require.Equal(t, "orange and vanilla custard swirled together", frag.Description)
}

func TestExtractIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"VANILLA BEAN is our flavor of the day! 🍦",
		"Flavor: Turtle Sundae\nDescription: No description available",
		"nothing to see here",
		"Today's flavor is Butter Pecan - creamy custard with pecans and caramel.",
	}
	for _, in := range inputs {
		first, ok1 := Extract(in, Default)
		second, ok2 := Extract(in, Default)
		require.Equal(t, ok1, ok2, in)
		require.Equal(t, first, second, in)
	}
}

func TestExtractMissesNeverReturnPartialFragments(t *testing.T) {
	t.Parallel()

	misses := []string{
		"",
		"   \n\t",
		"Open 11am to 10pm every day.",
		"Thanks for a great summer season!",
		"🍦🍦🍦",
	}
	for _, sets := range []PatternSet{Default, Labeled, Announcement, Heading} {
		for _, in := range misses {
			frag, ok := Extract(in, sets)
			require.False(t, ok, in)
			require.Zero(t, frag, in)
		}
	}
}

func TestNormalizeDescriptionPlaceholders(t *testing.T) {
	t.Parallel()

	set := Default.With(nil, []string{"Ask about our flavor of the month"})
	placeholders := []string{
		"No description available",
		"no description available.",
		"  NO DESCRIPTION AVAILABLE ",
		"Description not available",
		"n/a",
		"",
		"Ask about our flavor of the month",
	}
	for _, p := range placeholders {
		require.Empty(t, set.NormalizeDescription(p), p)
	}
	require.Equal(t, "Creamy vanilla custard", set.NormalizeDescription("Creamy vanilla custard 🍦"))
}

func TestExtractBrandPlaceholderRejected(t *testing.T) {
	t.Parallel()

	set := Labeled.With(nil, []string{"See Calendar"})
	_, ok := Extract("Flavor: See Calendar", set)
	require.False(t, ok)
}

func TestCustomPatternsTakePriority(t *testing.T) {
	t.Parallel()

	custom := MustPattern("special", `(?i)special of the day[: ]+(?P<flavor>[^\n]+)`)
	set := Default.With([]Pattern{custom}, nil)

	frag, ok := Extract("Special of the day: Blackberry Cobbler\nFlavor: Vanilla", set)
	require.True(t, ok)
	require.Equal(t, "Blackberry Cobbler", frag.FlavorName)

	frag, ok = Extract("Special of the day: Blackberry Cobbler\nFlavor: Vanilla", Default)
	require.True(t, ok)
	require.Equal(t, "Vanilla", frag.FlavorName)
}

func TestHeadingPreset(t *testing.T) {
	t.Parallel()

	text := "TODAY’S FLAVORS – Monday, October 14\n" +
		"Butter Pecan\n" +
		"Creamy butter custard loaded with roasted pecans\n" +
		"Shake of the month\n"

	frag, ok := Extract(text, Heading)
	require.True(t, ok)
	require.Equal(t, "Butter Pecan", frag.FlavorName)
	require.Equal(t, "Creamy butter custard loaded with roasted pecans", frag.Description)
}

func TestLaterMatchWinsWhenEarlierFailsValidation(t *testing.T) {
	t.Parallel()

	frag, ok := Extract("Flavor: Hi\nFlavor: Black Raspberry", Labeled)
	require.True(t, ok)
	require.Equal(t, "Black Raspberry", frag.FlavorName)
}

func TestCompilePattern(t *testing.T) {
	t.Parallel()

	_, err := CompilePattern("broken", `(unclosed`)
	require.Error(t, err)

	_, err = CompilePattern("no-group", `flavor`)
	require.Error(t, err)

	p, err := CompilePattern("ok", `Flavor: (\w+)`)
	require.NoError(t, err)
	frag, ok := Extract("Flavor: Pistachio", PatternSet{Flavor: []Pattern{p}})
	require.True(t, ok)
	require.Equal(t, "Pistachio", frag.FlavorName)
}

func TestPresetByName(t *testing.T) {
	t.Parallel()

	for _, name := range PresetNames() {
		_, err := PresetByName(name)
		require.NoError(t, err, name)
	}
	set, err := PresetByName("")
	require.NoError(t, err)
	require.Equal(t, len(Default.Flavor), len(set.Flavor))

	_, err = PresetByName("nope")
	require.Error(t, err)
}

func TestLabeledKeepsPeriodsInNames(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input  string
		flavor string
	}{
		{"Flavor: Choc. Mint Chip", "Choc. Mint Chip"},
		{"Flavor: Dr. Pepper Float", "Dr. Pepper Float"},
		{"Flavor: Mr. Peanut Butter Cup\nDescription: Peanut butter custard with cups", "Mr. Peanut Butter Cup"},
	}
	for _, tc := range testCases {
		frag, ok := Extract(tc.input, Labeled)
		require.True(t, ok, tc.input)
		require.Equal(t, tc.flavor, frag.FlavorName, tc.input)
	}

	frag, ok := Extract("Today's Flavors\nDr. Pepper Float\nRoot beer custard with a fizzy swirl", Heading)
	require.True(t, ok)
	require.Equal(t, "Dr. Pepper Float", frag.FlavorName)
}

func TestAnnouncementStripsDecoration(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input  string
		flavor string
	}{
		{"Flavor of the day: ••• Mint Chip •••", "Mint Chip"},
		{"*** BUTTER PECAN *** is our flavor of the day", "BUTTER PECAN"},
		{"Today's flavor: ~~ Raspberry Truffle ~~", "Raspberry Truffle"},
		{"Today: ** Turtle Sundae **\nSee you soon", "Turtle Sundae"},
		{"Guess the flavor!\n== Cherry Vanilla ==", "Cherry Vanilla"},
	}
	for _, tc := range testCases {
		frag, ok := Extract(tc.input, Announcement)
		require.True(t, ok, tc.input)
		require.Equal(t, tc.flavor, frag.FlavorName, tc.input)
	}
}

func TestExtractAll(t *testing.T) {
	t.Parallel()

	text := "Flavor: Butter Pecan\nDescription: Rich butter custard with roasted pecans\n\n" +
		"Flavor: Midnight Chocolate Cake\nDescription: Dark chocolate custard with cake pieces\n\n" +
		"Flavor: Shake of the Month\n\n" +
		"Flavor: butter pecan"

	set := Labeled.With(nil, []string{"Shake of the Month"})
	frags := ExtractAll(text, set)
	require.Len(t, frags, 2)
	require.Equal(t, "Butter Pecan", frags[0].FlavorName)
	require.Equal(t, "Rich butter custard with roasted pecans", frags[0].Description)
	require.Equal(t, "Midnight Chocolate Cake", frags[1].FlavorName)
	require.Equal(t, "Dark chocolate custard with cake pieces", frags[1].Description)

	require.Empty(t, ExtractAll("Open 11am to 10pm", set))
}
