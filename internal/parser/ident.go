package parser

// ident matches one identifier character: letters, letter numbers,
// combining marks, digits and connector punctuation.
const ident = `[\p{L}\p{Nl}\p{Mn}\p{Mc}\p{Nd}\p{Pc}]`
