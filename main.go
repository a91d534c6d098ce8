package main

import (
	"errors"
	"fmt"
)

func main() {
	store, err := NewStore("./data", 0)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer store.Close()

	store.Put("name", "john")
	store.Put("age", "25")
	store.Put("city", "paris")
	store.Put("country", "france")
	store.Put("job", "engineer")
	store.Put("company", "tech-corp")
	store.Put("salary", "75000")
	store.Put("department", "backend")
	store.Put("level", "senior")
	store.Put("experience", "5years")
	store.Put("skills", "go,python,sql")
	store.Put("education", "masters")
	store.Put("university", "sorbonne")
	store.Put("hobby", "reading")
	store.Put("sport", "tennis")
	store.Put("music", "jazz")
	store.Put("food", "italian")
	store.Put("color", "green")
	store.Put("season", "spring")
	store.Put("pet", "cat")

	store.Put("name", "alice")
	store.Put("job", "developer")
	store.Delete("age")

	val, err := store.Get("name")
	if err == nil {
		fmt.Println("name:", val)
	} else {
		fmt.Println("Error:", err)
	}

	val, err = store.Get("job")
	if err == nil {
		fmt.Println("job:", val)
	} else {
		fmt.Println("Error:", err)
	}

	_, err = store.Get("age")
	if errors.Is(err, ErrNotFound) {
		fmt.Println("age deleted:", err)
	}

	if err := store.Flush(); err != nil {
		fmt.Println("Error:", err)
		return
	}
	if err := store.CompactAll(); err != nil {
		fmt.Println("Error:", err)
		return
	}

	val, err = store.Get("name")
	if err == nil {
		fmt.Println("name after compaction:", val)
	} else {
		fmt.Println("Error:", err)
	}
}
