// Package financialdatasets implements core.Protocol for the Financial
// Datasets REST API. It serves US listings and Indian listings on NSE
// (".NS") and BSE (".BO"), passing the normalized ticker through unchanged.
//
// API Documentation: https://docs.financialdatasets.ai
package financialdatasets
