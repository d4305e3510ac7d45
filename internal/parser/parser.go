// Package parser extracts front/back cards from markdown files. A card is an
// "F:" block followed by a "B:" block; "---" separates cards. A file may
// open with a "# deck:" directive naming the deck its cards belong to.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

const (
	frontPrefix   = "F:"
	backPrefix    = "B:"
	deckDirective = "# deck:"
)

// ParsedCard is a card as authored in a source file, before it gains
// scheduling state.
type ParsedCard struct {
	Front string
	Back  string
	Deck  string // deck name from the file's directive, may be empty
}

type state int

const (
	seeking state = iota
	readingFront
	readingBack
)

// ParseFile reads a markdown file and extracts all cards in it.
func ParseFile(path string) ([]ParsedCard, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards.
func Parse(r io.Reader) ([]ParsedCard, error) {
	scanner := bufio.NewScanner(r)
	var cards []ParsedCard
	var current ParsedCard
	var block []string
	var deckName string
	currentState := seeking

	closeBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch currentState {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		}
		block = nil
	}

	finishCard := func() {
		closeBlock()
		if current.Front != "" {
			current.Deck = deckName
			cards = append(cards, current)
		}
		current = ParsedCard{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if currentState == seeking && strings.HasPrefix(strings.ToLower(line), deckDirective) {
			deckName = strings.TrimSpace(line[len(deckDirective):])
			continue
		}

		if line == "---" {
			finishCard()
			continue
		}

		isF := strings.HasPrefix(line, frontPrefix)
		isB := strings.HasPrefix(line, backPrefix)

		if isF || isB {
			closeBlock()
			if isF {
				// A new front always starts a new card.
				if currentState != seeking {
					finishCard()
				}
				currentState = readingFront
				block = append(block, trimPrefix(line, frontPrefix))
			} else {
				currentState = readingBack
				block = append(block, trimPrefix(line, backPrefix))
			}
		} else if currentState != seeking {
			block = append(block, line)
		}
	}

	finishCard() // the last card in the file has no trailing separator

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	if strings.HasPrefix(content, " ") {
		content = content[1:]
	}
	return content
}
