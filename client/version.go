package client

// Version identifies this client implementation in the clientInfo sent
// during initialize.
const Version = "0.2.0"
