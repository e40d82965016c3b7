package main

import (
	"errors"
	"strconv"
	"strings"
)

type command int

const (
	cmdClick command = iota
	cmdNew
	cmdBest
	cmdQuit
	cmdHelp
)

var errBadInput = errors.New("type a tile number, 'row col', new, best, help or quit")

// parseCommand reads one input line. Tiles are addressed by index or by
// 1-based "row col".
func parseCommand(line string, cols int) (command, int, error) {
	fields := strings.Fields(strings.ToLower(line))
	switch {
	case len(fields) == 0:
		return 0, 0, errBadInput
	case len(fields) == 1:
		switch fields[0] {
		case "new", "n", "replay":
			return cmdNew, 0, nil
		case "best", "b":
			return cmdBest, 0, nil
		case "quit", "q", "exit":
			return cmdQuit, 0, nil
		case "help", "h", "?":
			return cmdHelp, 0, nil
		}
		i, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, 0, errBadInput
		}
		return cmdClick, i, nil
	case len(fields) == 2:
		r, err1 := strconv.Atoi(fields[0])
		c, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || r < 1 || c < 1 || c > cols {
			return 0, 0, errBadInput
		}
		return cmdClick, (r-1)*cols + (c - 1), nil
	}
	return 0, 0, errBadInput
}
