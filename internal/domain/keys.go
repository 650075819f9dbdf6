package domain

// KeyPrefix is the default namespace for every key miran writes to the shared cache.
const KeyPrefix = "miran:"
