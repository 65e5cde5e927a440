package di

import (
	"fmt"
	"runtime"

	"github.com/google/uuid"
)

// Tag separates the slots of containers that would otherwise share them.
type Tag struct {
	id string
}

// Here tags a container with the file and line of the caller.
func Here() Tag {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return NewTag()
	}
	return Tag{id: fmt.Sprintf("%s:%d", file, line)}
}

// NewTag returns a tag no other container shares.
func NewTag() Tag {
	return Tag{id: uuid.NewString()}
}

func NamedTag(name string) Tag {
	return Tag{id: "name:" + name}
}

func (t Tag) String() string {
	return t.id
}

func (t Tag) configure(cb *containerBuilder) {
	cb.options.Tag = t
}
