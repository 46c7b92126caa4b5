package util

import "strconv"

// ParseIntDefault parses s as an int, returning def when s is empty or
// malformed. The env-override layer relies on this so a bad value falls
// back to the file config instead of aborting startup.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}