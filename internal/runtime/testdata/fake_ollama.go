package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// A stand-in for the model runtime CLI. Behaviour is driven by FAKE_OLLAMA_*
// environment variables so tests can script every outcome.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: fake_ollama <list|run|create|--version>")
		os.Exit(2)
	}
	switch os.Args[1] {
	case "--version":
		fmt.Println("ollama version is 0.0.0-fake")
	case "list":
		if code := envInt("FAKE_OLLAMA_LIST_EXIT"); code != 0 {
			fmt.Fprintln(os.Stderr, "could not connect to ollama app")
			os.Exit(code)
		}
		list := os.Getenv("FAKE_OLLAMA_LIST")
		if list == "" {
			list = "NAME                 ID              SIZE     MODIFIED\ntest-model:latest    0123456789ab    12 GB    1 minute ago\n"
		}
		fmt.Print(list)
	case "run":
		if d, err := time.ParseDuration(os.Getenv("FAKE_OLLAMA_SLEEP")); err == nil {
			time.Sleep(d)
		}
		if s := os.Getenv("FAKE_OLLAMA_STDERR"); s != "" {
			fmt.Fprint(os.Stderr, s)
		}
		if code := envInt("FAKE_OLLAMA_EXIT"); code != 0 {
			os.Exit(code)
		}
		fmt.Println(os.Getenv("FAKE_OLLAMA_RESPONSE"))
	case "create":
		if code := envInt("FAKE_OLLAMA_CREATE_EXIT"); code != 0 {
			fmt.Fprintln(os.Stderr, "Error: invalid modelfile")
			os.Exit(code)
		}
		fmt.Println("success")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

func envInt(key string) int {
	n, _ := strconv.Atoi(os.Getenv(key))
	return n
}
