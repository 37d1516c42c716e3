package source

import "fmt"

// DefaultText is shown when nothing else has been loaded.
const DefaultText = `Welcome to Touch to Read! This is an RSVP speed reading app. Touch and hold anywhere on the screen to start reading. Release to pause. The longer you hold, the more you read. It's that simple. Try adjusting the speed in settings to find your perfect pace. Happy reading!`

// SampleText is a titled built-in text.
type SampleText struct {
	Title string
	Text  string
}

var samples = []SampleText{
	{
		Title: "The Art of Reading",
		Text:  `Speed reading is not just about reading faster. It's about understanding more efficiently. The human brain can process visual information incredibly quickly, much faster than we typically read. Traditional reading involves moving your eyes across the page, which creates unnecessary delays. RSVP technology eliminates this by presenting words at a fixed point, allowing your brain to focus purely on comprehension. Studies show that most people can comfortably read at 300-500 words per minute with this method, with practice reaching 700 WPM or more while maintaining good comprehension.`,
	},
	{
		Title: "The Power of Focus",
		Text:  `In our modern world, the ability to focus has become increasingly rare and valuable. Every notification, every alert, every ping competes for our attention. But deep work, the kind that produces real value, requires sustained concentration. When you eliminate distractions and give your full attention to a single task, remarkable things happen. Your comprehension deepens. Your creativity flourishes. Your productivity soars. This is why touch-to-read is so powerful. By requiring physical engagement, it transforms passive reading into an active choice. You decide when to focus, when to pause, when to reflect.`,
	},
	{
		Title: "The Science of Learning",
		Text:  `Learning is not a passive process. It requires active engagement with material. When you read at an accelerated pace, your brain enters a state of heightened focus. There's no time for mind-wandering or distraction. Each word demands attention. This forced concentration can actually improve retention for many readers. The key is finding your optimal speed, fast enough to maintain focus but not so fast that comprehension suffers. Everyone's sweet spot is different. Experiment with different speeds and see what works best for you.`,
	},
}

// Samples returns the built-in sample texts.
func Samples() []SampleText {
	return append([]SampleText(nil), samples...)
}

// Sample returns the text of sample i (zero based).
func Sample(i int) (string, error) {
	if i < 0 || i >= len(samples) {
		return "", fmt.Errorf("sample %d out of range [0, %d)", i, len(samples))
	}
	return samples[i].Text, nil
}
