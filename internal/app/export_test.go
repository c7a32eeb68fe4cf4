package app

// NewPageServiceWithNotifiers builds a PageService whose pages use notifiers from factory.
var NewPageServiceWithNotifiers = newPageServiceWithNotifiers
