// Package oauth drives the OAuth redirect/callback exchange.
//
// A Controller runs one Flow per user action. Begin asks the authority for
// the provider's authorization URL and hands it to the Navigator. The user
// then leaves the application; nothing is remembered across that gap.
// When the redirect lands back (CallbackHandler, or the CLI "callback"
// command), Complete starts a fresh Flow that exchanges the code and state
// for a session and writes it into the session store.
package oauth
