// Package xslt encodes a mapping tree as an XSLT 1.0 stylesheet and decodes
// such a stylesheet back into a mapping tree.
//
// The stylesheet layout is fixed:
//
//	<xsl:stylesheet xmlns:xsl="..." [xmlns:prefix="uri"]... version="1.0">
//	  <xsl:output method="xml" indent="yes"/>
//	  <xsl:param name="..."/>...
//	  <xsl:template match="/">
//	    ...encoded mapping items...
//	  </xsl:template>
//	</xsl:stylesheet>
//
// Encoding is deterministic: the same tree and parameters always produce the
// same text. Decoding is permissive: instructions the tree cannot represent
// are skipped together with their subtree, and target fields named by
// literal elements or xsl:attribute are materialized on the fly.
package xslt
