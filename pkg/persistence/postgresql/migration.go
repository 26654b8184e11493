package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE tenants (
				tenant_id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				ad_server VARCHAR(100) NOT NULL,
				require_manual_approval BOOLEAN NOT NULL DEFAULT false,
				auto_create_enabled BOOLEAN NOT NULL DEFAULT true,
				currency_limits JSONB DEFAULT '[]',
				creative_agents JSONB DEFAULT '[]'
			);

			CREATE TABLE products (
				tenant_id VARCHAR(255) NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
				product_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				pricing_options JSONB NOT NULL DEFAULT '[]',
				auto_create_enabled BOOLEAN NOT NULL DEFAULT true,
				formats JSONB DEFAULT '[]',
				PRIMARY KEY (tenant_id, product_id)
			);

			CREATE TABLE media_buys (
				tenant_id VARCHAR(255) NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
				media_buy_id VARCHAR(255) NOT NULL,
				principal_id VARCHAR(255) NOT NULL,
				buyer_ref VARCHAR(255) NOT NULL,
				currency CHAR(3),
				total_budget NUMERIC(18,4) NOT NULL DEFAULT 0,
				start_time TIMESTAMP WITH TIME ZONE NOT NULL,
				end_time TIMESTAMP WITH TIME ZONE NOT NULL,
				state VARCHAR(50) NOT NULL,
				po_number VARCHAR(255),
				approval_needed BOOLEAN NOT NULL DEFAULT false,
				paused BOOLEAN NOT NULL DEFAULT false,
				external_id VARCHAR(255),
				raw_request JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (tenant_id, media_buy_id)
			);

			CREATE UNIQUE INDEX idx_media_buys_buyer_ref ON media_buys(tenant_id, principal_id, buyer_ref);
			CREATE INDEX idx_media_buys_state ON media_buys(tenant_id, state);

			CREATE TABLE packages (
				tenant_id VARCHAR(255) NOT NULL,
				package_id VARCHAR(255) NOT NULL,
				media_buy_id VARCHAR(255) NOT NULL,
				product_id VARCHAR(255) NOT NULL,
				budget NUMERIC(18,4) NOT NULL DEFAULT 0,
				pricing JSONB,
				targeting_overlay JSONB,
				creative_ids JSONB DEFAULT '[]',
				paused BOOLEAN NOT NULL DEFAULT false,
				budget_push_state VARCHAR(50),
				external_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (tenant_id, package_id),
				FOREIGN KEY (tenant_id, media_buy_id) REFERENCES media_buys(tenant_id, media_buy_id) ON DELETE CASCADE
			);

			CREATE INDEX idx_packages_media_buy ON packages(tenant_id, media_buy_id);

			CREATE TABLE creatives (
				tenant_id VARCHAR(255) NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
				creative_id VARCHAR(255) NOT NULL,
				principal_id VARCHAR(255),
				name VARCHAR(255),
				format_agent_url TEXT NOT NULL,
				format_id VARCHAR(255) NOT NULL,
				assets JSONB DEFAULT '[]',
				content_url TEXT,
				width NUMERIC(10,2),
				height NUMERIC(10,2),
				approved BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (tenant_id, creative_id)
			);

			CREATE TABLE creative_assignments (
				assignment_id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				media_buy_id VARCHAR(255) NOT NULL,
				package_id VARCHAR(255) NOT NULL,
				creative_id VARCHAR(255) NOT NULL,
				weight INT NOT NULL DEFAULT 100,
				placement_ids JSONB DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				FOREIGN KEY (tenant_id, package_id) REFERENCES packages(tenant_id, package_id) ON DELETE CASCADE
			);

			CREATE UNIQUE INDEX idx_assignments_unique ON creative_assignments(tenant_id, media_buy_id, package_id, creative_id);

			CREATE TABLE workflow_steps (
				tenant_id VARCHAR(255) NOT NULL,
				step_id VARCHAR(255) NOT NULL,
				principal_id VARCHAR(255),
				step_type VARCHAR(100) NOT NULL,
				tool_name VARCHAR(255),
				status VARCHAR(50) NOT NULL,
				request_snapshot JSONB,
				response_snapshot JSONB,
				error TEXT,
				comments JSONB DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (tenant_id, step_id)
			);

			CREATE INDEX idx_workflow_steps_status ON workflow_steps(tenant_id, status);

			CREATE TABLE object_workflow_mappings (
				mapping_id UUID PRIMARY KEY,
				step_id VARCHAR(255) NOT NULL,
				object_type VARCHAR(100) NOT NULL,
				object_id VARCHAR(255) NOT NULL,
				action VARCHAR(100) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_object_mappings_object ON object_workflow_mappings(object_type, object_id);
		`,
	}
}
