package catalog

// Default returns the built-in practice catalog.
func Default() Catalog {
	return Catalog{
		Sentences: []PracticeItem{
			{ID: "1", Text: "She sells seashells by the seashore."},
			{ID: "2", Text: "The quick brown fox jumps over the lazy dog."},
			{ID: "3", Text: "Practice makes perfect when learning pronunciation."},
			{ID: "4", Text: "Speaking clearly requires focus and confidence."},
		},
		Paragraphs: []PracticeItem{
			{ID: "101", Text: "Yesterday, I went to the park with my family. The weather was beautiful, so we enjoyed a picnic lunch under a large tree. After eating, my children played on the swings and on the slide. I read a book and relaxed on the grass. It was a peaceful and enjoyable afternoon before we headed home in the late afternoon"},
			{ID: "102", Text: "Don’t be fooled by its name – small talk is anything but small. Various studies show that nearly a third of our speech is small talk. Practicing this part of daily English conversation is vital. To ace your next interaction with a native speaker, we recommend learning open-ended questions and rehearsing how to answer them, and expanding your vocabulary for fluent conversation either alone or with a speaking partner."},
			{ID: "103", Text: "Try to spend 15 minutes every day reading English texts. Find a comfortable spot where you can focus on a book, an article, etc. without the risk of being interrupted. Don’t know what to read? Try news websites like the BBC for free daily articles featuring easy-to-read paragraphs to improve your English."},
		},
	}
}
